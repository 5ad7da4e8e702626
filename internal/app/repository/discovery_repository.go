package repository

import (
	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DiscoveryRepository interface {
	WithTx(tx *gorm.DB) DiscoveryRepository
	Create(discovery *model.Discovery) error
	FindByID(id uint) (*model.Discovery, error)
	FindByPlanetAndNumber(planetID uint, number int) (*model.Discovery, error)
	FindByPlanet(planetID uint) ([]model.Discovery, error)
	ThingsDiscovered(planetID uint) ([]string, error)
	Update(discovery *model.Discovery) error
}

type discoveryRepository struct {
	db *gorm.DB
}

func NewDiscoveryRepository(db *gorm.DB) DiscoveryRepository {
	return &discoveryRepository{db: db}
}

func (r *discoveryRepository) WithTx(tx *gorm.DB) DiscoveryRepository {
	return &discoveryRepository{db: tx}
}

func (r *discoveryRepository) Create(discovery *model.Discovery) error {
	logger.Debug("Creating discovery in database", map[string]interface{}{
		"planet_id": discovery.PlanetID,
		"number":    discovery.Number,
	})

	if err := r.db.Omit(clause.Associations).Create(discovery).Error; err != nil {
		logger.Error("Failed to create discovery in database", err, map[string]interface{}{
			"planet_id": discovery.PlanetID,
			"number":    discovery.Number,
		})
		return err
	}

	logger.Debug("Discovery created in database", map[string]interface{}{
		"discovery_id": discovery.ID,
		"planet_id":    discovery.PlanetID,
		"number":       discovery.Number,
	})
	return nil
}

func (r *discoveryRepository) FindByID(id uint) (*model.Discovery, error) {
	var discovery model.Discovery
	if err := r.db.First(&discovery, id).Error; err != nil {
		logger.Debug("Discovery lookup failed", map[string]interface{}{
			"discovery_id": id,
			"error":        err.Error(),
		})
		return nil, err
	}
	return &discovery, nil
}

func (r *discoveryRepository) FindByPlanetAndNumber(planetID uint, number int) (*model.Discovery, error) {
	logger.Debug("Finding discovery by planet and number in database", map[string]interface{}{
		"planet_id": planetID,
		"number":    number,
	})

	var discovery model.Discovery
	if err := r.db.Where("planet_id = ? AND number = ?", planetID, number).First(&discovery).Error; err != nil {
		logger.Debug("Discovery lookup by number failed", map[string]interface{}{
			"planet_id": planetID,
			"number":    number,
			"error":     err.Error(),
		})
		return nil, err
	}
	return &discovery, nil
}

func (r *discoveryRepository) FindByPlanet(planetID uint) ([]model.Discovery, error) {
	var discoveries []model.Discovery
	if err := r.db.Where("planet_id = ?", planetID).Order("number ASC").Find(&discoveries).Error; err != nil {
		logger.Error("Failed to find discoveries in database", err, map[string]interface{}{
			"planet_id": planetID,
		})
		return nil, err
	}
	return discoveries, nil
}

// ThingsDiscovered returns the prompts already used on a planet.
func (r *discoveryRepository) ThingsDiscovered(planetID uint) ([]string, error) {
	var things []string
	if err := r.db.Model(&model.Discovery{}).
		Where("planet_id = ?", planetID).
		Pluck("thing_discovered", &things).Error; err != nil {
		logger.Error("Failed to load things discovered from database", err, map[string]interface{}{
			"planet_id": planetID,
		})
		return nil, err
	}
	return things, nil
}

func (r *discoveryRepository) Update(discovery *model.Discovery) error {
	logger.Debug("Updating discovery in database", map[string]interface{}{
		"discovery_id": discovery.ID,
	})

	if err := r.db.Omit(clause.Associations).Save(discovery).Error; err != nil {
		logger.Error("Failed to update discovery in database", err, map[string]interface{}{
			"discovery_id": discovery.ID,
		})
		return err
	}
	return nil
}
