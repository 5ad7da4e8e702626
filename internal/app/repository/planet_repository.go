package repository

import (
	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanetSummary is an archive listing row.
type PlanetSummary struct {
	Planet         model.Planet
	DiscoveryCount int64
}

type PlanetRepository interface {
	WithTx(tx *gorm.DB) PlanetRepository
	Create(planet *model.Planet) error
	FindByID(id uint) (*model.Planet, error)
	FindByIDWithDiscoveries(id uint) (*model.Planet, error)
	FindArchivedByUser(userID uint) ([]PlanetSummary, error)
	Update(planet *model.Planet) error
	Delete(id uint) error
}

type planetRepository struct {
	db *gorm.DB
}

func NewPlanetRepository(db *gorm.DB) PlanetRepository {
	return &planetRepository{db: db}
}

func (r *planetRepository) WithTx(tx *gorm.DB) PlanetRepository {
	return &planetRepository{db: tx}
}

func (r *planetRepository) Create(planet *model.Planet) error {
	logger.Debug("Creating planet in database", map[string]interface{}{
		"user_id":            planet.UserID,
		"things_to_discover": planet.ThingsToDiscover,
	})

	if err := r.db.Omit(clause.Associations).Create(planet).Error; err != nil {
		logger.Error("Failed to create planet in database", err, map[string]interface{}{
			"user_id": planet.UserID,
		})
		return err
	}

	logger.Debug("Planet created in database", map[string]interface{}{
		"planet_id": planet.ID,
		"user_id":   planet.UserID,
	})
	return nil
}

func (r *planetRepository) FindByID(id uint) (*model.Planet, error) {
	logger.Debug("Finding planet by ID in database", map[string]interface{}{
		"planet_id": id,
	})

	var planet model.Planet
	if err := r.db.First(&planet, id).Error; err != nil {
		logger.Debug("Planet lookup failed", map[string]interface{}{
			"planet_id": id,
			"error":     err.Error(),
		})
		return nil, err
	}
	return &planet, nil
}

func (r *planetRepository) FindByIDWithDiscoveries(id uint) (*model.Planet, error) {
	logger.Debug("Finding planet with discoveries in database", map[string]interface{}{
		"planet_id": id,
	})

	var planet model.Planet
	err := r.db.
		Preload("Discoveries", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		First(&planet, id).Error
	if err != nil {
		logger.Debug("Planet with discoveries lookup failed", map[string]interface{}{
			"planet_id": id,
			"error":     err.Error(),
		})
		return nil, err
	}

	logger.Debug("Planet with discoveries found in database", map[string]interface{}{
		"planet_id":       planet.ID,
		"discovery_count": len(planet.Discoveries),
	})
	return &planet, nil
}

// FindArchivedByUser lists the user's named planets, most recently archived first.
func (r *planetRepository) FindArchivedByUser(userID uint) ([]PlanetSummary, error) {
	logger.Debug("Finding archived planets in database", map[string]interface{}{
		"user_id": userID,
	})

	var planets []model.Planet
	if err := r.db.
		Where("user_id = ? AND archived_at IS NOT NULL", userID).
		Order("archived_at DESC").
		Order("id DESC").
		Find(&planets).Error; err != nil {
		logger.Error("Failed to find archived planets in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if len(planets) == 0 {
		return []PlanetSummary{}, nil
	}

	ids := make([]uint, len(planets))
	for i, p := range planets {
		ids[i] = p.ID
	}

	var counts []struct {
		PlanetID uint
		Count    int64
	}
	if err := r.db.Model(&model.Discovery{}).
		Select("planet_id, COUNT(*) AS count").
		Where("planet_id IN ?", ids).
		Group("planet_id").
		Scan(&counts).Error; err != nil {
		logger.Error("Failed to count discoveries in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	byPlanet := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byPlanet[c.PlanetID] = c.Count
	}

	summaries := make([]PlanetSummary, len(planets))
	for i, p := range planets {
		summaries[i] = PlanetSummary{Planet: p, DiscoveryCount: byPlanet[p.ID]}
	}

	logger.Debug("Archived planets found in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(summaries),
	})
	return summaries, nil
}

func (r *planetRepository) Update(planet *model.Planet) error {
	logger.Debug("Updating planet in database", map[string]interface{}{
		"planet_id": planet.ID,
	})

	if err := r.db.Omit(clause.Associations).Save(planet).Error; err != nil {
		logger.Error("Failed to update planet in database", err, map[string]interface{}{
			"planet_id": planet.ID,
		})
		return err
	}
	return nil
}

// Delete removes the planet and its discoveries in one transaction.
func (r *planetRepository) Delete(id uint) error {
	logger.Debug("Deleting planet from database", map[string]interface{}{
		"planet_id": id,
	})

	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("planet_id = ?", id).Delete(&model.Discovery{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected

		result = tx.Delete(&model.Planet{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete planet from database", err, map[string]interface{}{
			"planet_id": id,
		})
		return err
	}

	logger.Debug("Planet deleted from database", map[string]interface{}{
		"planet_id":           id,
		"discoveries_removed": removed,
	})
	return nil
}
