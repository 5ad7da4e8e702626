package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/repository"
	"github.com/ikkim/captains-log/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrPlanetNotFound    = errors.New("planet not found")
	ErrPlanetForbidden   = errors.New("planet belongs to another explorer")
	ErrPlanetNotArchived = errors.New("planet is still being explored")
	ErrDiscoveryNotFound = errors.New("discovery not found")
)

// PlanetDetail is a planet with its discoveries in order.
type PlanetDetail struct {
	Planet     *model.Planet `json:"planet"`
	InProgress bool          `json:"in_progress"`
}

type ArchiveService interface {
	ListArchived(userID uint) ([]repository.PlanetSummary, error)
	GetPlanet(userID, planetID uint) (*PlanetDetail, error)
	RenamePlanet(userID, planetID uint, input NameInput) (*model.Planet, error)
	EditDiscovery(userID, planetID uint, number int, input LogInput) (*model.Discovery, error)
	DeletePlanet(userID, planetID uint) error
}

type archiveService struct {
	db            *gorm.DB
	planetRepo    repository.PlanetRepository
	discoveryRepo repository.DiscoveryRepository
}

func NewArchiveService(
	db *gorm.DB,
	planetRepo repository.PlanetRepository,
	discoveryRepo repository.DiscoveryRepository,
) ArchiveService {
	return &archiveService{
		db:            db,
		planetRepo:    planetRepo,
		discoveryRepo: discoveryRepo,
	}
}

func (s *archiveService) ListArchived(userID uint) ([]repository.PlanetSummary, error) {
	logger.Debug("Listing archived planets", map[string]interface{}{
		"user_id": userID,
	})

	summaries, err := s.planetRepo.FindArchivedByUser(userID)
	if err != nil {
		logger.Error("Failed to list archived planets", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return summaries, nil
}

// ownedPlanet distinguishes a missing planet from one owned by someone else.
func ownedPlanet(planets repository.PlanetRepository, userID, planetID uint) (*model.Planet, error) {
	planet, err := planets.FindByID(planetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanetNotFound
		}
		return nil, fmt.Errorf("load planet: %w", err)
	}
	if !planet.OwnedBy(userID) {
		return nil, ErrPlanetForbidden
	}
	return planet, nil
}

func (s *archiveService) GetPlanet(userID, planetID uint) (*PlanetDetail, error) {
	if _, err := ownedPlanet(s.planetRepo, userID, planetID); err != nil {
		s.logRejected("Planet view rejected", userID, planetID, err)
		return nil, err
	}

	planet, err := s.planetRepo.FindByIDWithDiscoveries(planetID)
	if err != nil {
		logger.Error("Failed to load planet discoveries", err, map[string]interface{}{
			"user_id":   userID,
			"planet_id": planetID,
		})
		return nil, err
	}

	return &PlanetDetail{Planet: planet, InProgress: !planet.IsArchived()}, nil
}

func (s *archiveService) RenamePlanet(userID, planetID uint, input NameInput) (*model.Planet, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var planet *model.Planet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		planets := s.planetRepo.WithTx(tx)

		var err error
		planet, err = ownedPlanet(planets, userID, planetID)
		if err != nil {
			return err
		}
		if !planet.IsArchived() {
			return ErrPlanetNotArchived
		}

		planet.Name = input.Name
		return planets.Update(planet)
	})
	if err != nil {
		s.logRejected("Planet rename rejected", userID, planetID, err)
		return nil, err
	}

	logger.Info("Planet renamed", map[string]interface{}{
		"user_id":   userID,
		"planet_id": planetID,
		"name":      planet.Name,
	})
	return planet, nil
}

func (s *archiveService) EditDiscovery(userID, planetID uint, number int, input LogInput) (*model.Discovery, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var discovery *model.Discovery
	err := s.db.Transaction(func(tx *gorm.DB) error {
		planet, err := ownedPlanet(s.planetRepo.WithTx(tx), userID, planetID)
		if err != nil {
			return err
		}
		if !planet.IsArchived() {
			return ErrPlanetNotArchived
		}

		discoveries := s.discoveryRepo.WithTx(tx)
		discovery, err = discoveries.FindByPlanetAndNumber(planet.ID, number)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDiscoveryNotFound
			}
			return fmt.Errorf("load discovery: %w", err)
		}

		discovery.Describe(input.Description)
		return discoveries.Update(discovery)
	})
	if err != nil {
		s.logRejected("Discovery edit rejected", userID, planetID, err)
		return nil, err
	}

	logger.Info("Discovery edited", map[string]interface{}{
		"user_id":   userID,
		"planet_id": planetID,
		"number":    number,
	})
	return discovery, nil
}

// DeletePlanet removes an archived planet together with its discoveries.
func (s *archiveService) DeletePlanet(userID, planetID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		planets := s.planetRepo.WithTx(tx)

		planet, err := ownedPlanet(planets, userID, planetID)
		if err != nil {
			return err
		}
		if !planet.IsArchived() {
			return ErrPlanetNotArchived
		}
		return planets.Delete(planet.ID)
	})
	if err != nil {
		s.logRejected("Planet deletion rejected", userID, planetID, err)
		return err
	}

	logger.Info("Planet deleted", map[string]interface{}{
		"user_id":   userID,
		"planet_id": planetID,
	})
	return nil
}

func (s *archiveService) logRejected(msg string, userID, planetID uint, err error) {
	fields := map[string]interface{}{
		"user_id":   userID,
		"planet_id": planetID,
		"reason":    err.Error(),
	}
	switch {
	case errors.Is(err, ErrPlanetNotFound),
		errors.Is(err, ErrPlanetForbidden),
		errors.Is(err, ErrPlanetNotArchived),
		errors.Is(err, ErrDiscoveryNotFound):
		logger.Warn(msg, fields)
	default:
		logger.Error(msg, err, fields)
	}
}
