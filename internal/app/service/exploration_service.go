package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/prompt"
	"github.com/ikkim/captains-log/internal/app/repository"
	"github.com/ikkim/captains-log/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrNotCurrentDiscovery = errors.New("discovery is not the one being explored")
	ErrNotCurrentPlanet    = errors.New("planet is not the one being explored")
	ErrWrongStage          = errors.New("exploration is not at this stage")
	ErrPromptsExhausted    = prompt.ErrPromptsExhausted
)

// Stage is where a user is in the exploration of their current planet.
type Stage string

const (
	StageIdle                Stage = "idle"
	StageAwaitingDescription Stage = "awaiting_description"
	StageAwaitingName        Stage = "awaiting_name"
)

// ExplorationState is derived from the user's session pointer and the
// description of the discovery it references. Nothing else is stored.
type ExplorationState struct {
	Stage     Stage            `json:"stage"`
	Planet    *model.Planet    `json:"planet,omitempty"`
	Discovery *model.Discovery `json:"discovery,omitempty"`

	// set only when idle
	SuggestedThingsToDiscover int `json:"suggested_things_to_discover,omitempty"`

	stale bool
}

type ExplorationService interface {
	Current(userID uint) (*ExplorationState, error)
	Start(userID uint, input StartInput) (*ExplorationState, bool, error)
	GetCurrentDiscovery(userID, planetID uint, number int) (*ExplorationState, error)
	LogDiscovery(userID, planetID uint, number int, input LogInput) (*ExplorationState, error)
	NamePlanet(userID, planetID uint, input NameInput) (*model.Planet, error)
}

type explorationService struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	planetRepo    repository.PlanetRepository
	discoveryRepo repository.DiscoveryRepository
	prompts       *prompt.Generator
	now           func() time.Time
}

func NewExplorationService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	planetRepo repository.PlanetRepository,
	discoveryRepo repository.DiscoveryRepository,
	prompts *prompt.Generator,
) ExplorationService {
	return &explorationService{
		db:            db,
		userRepo:      userRepo,
		planetRepo:    planetRepo,
		discoveryRepo: discoveryRepo,
		prompts:       prompts,
		now:           time.Now,
	}
}

// txRepos are repositories bound to one transaction.
type txRepos struct {
	users       repository.UserRepository
	planets     repository.PlanetRepository
	discoveries repository.DiscoveryRepository
}

func (s *explorationService) inTx(fn func(r txRepos) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(txRepos{
			users:       s.userRepo.WithTx(tx),
			planets:     s.planetRepo.WithTx(tx),
			discoveries: s.discoveryRepo.WithTx(tx),
		})
	})
}

// lockUser loads the acting user with a row lock so that concurrent
// transitions of the same user run one after the other.
func lockUser(r txRepos, userID uint) (*model.User, error) {
	user, err := r.users.FindByIDForUpdate(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func loadState(r txRepos, user *model.User) (*ExplorationState, error) {
	session := user.Session()
	if session == nil {
		return &ExplorationState{Stage: StageIdle}, nil
	}

	planet, err := r.planets.FindByID(session.PlanetID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load current planet: %w", err)
	}
	discovery, derr := r.discoveries.FindByID(session.DiscoveryID)
	if derr != nil && !errors.Is(derr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load current discovery: %w", derr)
	}

	stale := &ExplorationState{Stage: StageIdle, stale: true}
	if planet == nil || discovery == nil || discovery.PlanetID != planet.ID || !planet.OwnedBy(user.ID) {
		return stale, nil
	}

	switch {
	case discovery.IsPending():
		return &ExplorationState{Stage: StageAwaitingDescription, Planet: planet, Discovery: discovery}, nil
	case discovery.Number == planet.ThingsToDiscover:
		return &ExplorationState{Stage: StageAwaitingName, Planet: planet, Discovery: discovery}, nil
	}
	return stale, nil
}

func (s *explorationService) Current(userID uint) (*ExplorationState, error) {
	logger.Debug("Resolving exploration state", map[string]interface{}{
		"user_id": userID,
	})

	var state *ExplorationState
	err := s.inTx(func(r txRepos) error {
		user, err := r.users.FindByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		state, err = loadState(r, user)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logger.Error("Failed to resolve exploration state", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	if state.stale {
		logger.Warn("Session pointer references a missing or finished discovery", map[string]interface{}{
			"user_id": userID,
		})
	}
	if state.Stage == StageIdle {
		state.SuggestedThingsToDiscover = s.prompts.SuggestThingsToDiscover()
	}
	return state, nil
}

// Start begins a new planet. A user who is already exploring gets the
// existing session back with resumed set and nothing is created.
func (s *explorationService) Start(userID uint, input StartInput) (*ExplorationState, bool, error) {
	if err := input.Validate(); err != nil {
		logger.Warn("Exploration start rejected", map[string]interface{}{
			"user_id": userID,
			"reason":  err.Error(),
		})
		return nil, false, err
	}

	logger.Info("Starting exploration", map[string]interface{}{
		"user_id":            userID,
		"things_to_discover": input.ThingsToDiscover,
	})

	var (
		state   *ExplorationState
		resumed bool
	)
	err := s.inTx(func(r txRepos) error {
		user, err := lockUser(r, userID)
		if err != nil {
			return err
		}

		current, err := loadState(r, user)
		if err != nil {
			return err
		}
		if current.Stage != StageIdle {
			state, resumed = current, true
			return nil
		}

		planet := &model.Planet{
			UserID:           user.ID,
			Name:             model.DefaultPlanetName,
			ThingsToDiscover: input.ThingsToDiscover,
		}
		if err := r.planets.Create(planet); err != nil {
			return fmt.Errorf("create planet: %w", err)
		}

		discovery, err := s.nextDiscovery(r, planet, 1)
		if err != nil {
			return err
		}

		user.BeginSession(planet.ID, discovery.ID)
		if err := r.users.Update(user); err != nil {
			return fmt.Errorf("set session pointer: %w", err)
		}

		state = &ExplorationState{Stage: StageAwaitingDescription, Planet: planet, Discovery: discovery}
		return nil
	})
	if err != nil {
		logger.Error("Failed to start exploration", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, false, err
	}

	if resumed {
		logger.Info("Exploration resumed instead of started", map[string]interface{}{
			"user_id":   userID,
			"planet_id": state.Planet.ID,
			"stage":     state.Stage,
		})
		return state, true, nil
	}

	logger.Info("Exploration started", map[string]interface{}{
		"user_id":   userID,
		"planet_id": state.Planet.ID,
	})
	return state, false, nil
}

// nextDiscovery creates discovery number on planet with a fresh prompt.
func (s *explorationService) nextDiscovery(r txRepos, planet *model.Planet, number int) (*model.Discovery, error) {
	used, err := r.discoveries.ThingsDiscovered(planet.ID)
	if err != nil {
		return nil, fmt.Errorf("load used prompts: %w", err)
	}

	p, err := s.prompts.Generate(used)
	if err != nil {
		return nil, err
	}

	discovery := &model.Discovery{
		PlanetID:        planet.ID,
		Number:          number,
		Circumstances:   p.Circumstances,
		ThingDiscovered: p.ThingDiscovered,
	}
	if err := r.discoveries.Create(discovery); err != nil {
		return nil, fmt.Errorf("create discovery %d: %w", number, err)
	}
	return discovery, nil
}

// currentDiscovery checks that (planetID, number) is the pending discovery.
func currentDiscovery(state *ExplorationState, planetID uint, number int) error {
	if state.Stage != StageAwaitingDescription ||
		state.Planet.ID != planetID ||
		state.Discovery.Number != number {
		return ErrNotCurrentDiscovery
	}
	return nil
}

func (s *explorationService) GetCurrentDiscovery(userID, planetID uint, number int) (*ExplorationState, error) {
	var state *ExplorationState
	err := s.inTx(func(r txRepos) error {
		user, err := r.users.FindByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		state, err = loadState(r, user)
		if err != nil {
			return err
		}
		return currentDiscovery(state, planetID, number)
	})
	if err != nil {
		if errors.Is(err, ErrNotCurrentDiscovery) {
			logger.Warn("Requested discovery is not current", map[string]interface{}{
				"user_id":   userID,
				"planet_id": planetID,
				"number":    number,
			})
		}
		return nil, err
	}
	return state, nil
}

// LogDiscovery describes the pending discovery, then either creates the
// next one or leaves the planet waiting for a name.
func (s *explorationService) LogDiscovery(userID, planetID uint, number int, input LogInput) (*ExplorationState, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Logging discovery", map[string]interface{}{
		"user_id":   userID,
		"planet_id": planetID,
		"number":    number,
	})

	var state *ExplorationState
	err := s.inTx(func(r txRepos) error {
		user, err := lockUser(r, userID)
		if err != nil {
			return err
		}

		current, err := loadState(r, user)
		if err != nil {
			return err
		}
		if err := currentDiscovery(current, planetID, number); err != nil {
			return err
		}

		planet, discovery := current.Planet, current.Discovery
		discovery.Describe(input.Description)
		if err := r.discoveries.Update(discovery); err != nil {
			return fmt.Errorf("describe discovery: %w", err)
		}

		if discovery.Number == planet.ThingsToDiscover {
			state = &ExplorationState{Stage: StageAwaitingName, Planet: planet, Discovery: discovery}
			return nil
		}

		next, err := s.nextDiscovery(r, planet, discovery.Number+1)
		if err != nil {
			return err
		}
		user.AdvanceSession(next.ID)
		if err := r.users.Update(user); err != nil {
			return fmt.Errorf("advance session pointer: %w", err)
		}

		state = &ExplorationState{Stage: StageAwaitingDescription, Planet: planet, Discovery: next}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotCurrentDiscovery) {
			logger.Warn("Discovery log rejected: not current", map[string]interface{}{
				"user_id":   userID,
				"planet_id": planetID,
				"number":    number,
			})
		} else {
			logger.Error("Failed to log discovery", err, map[string]interface{}{
				"user_id":   userID,
				"planet_id": planetID,
				"number":    number,
			})
		}
		return nil, err
	}

	logger.Info("Discovery logged", map[string]interface{}{
		"user_id":   userID,
		"planet_id": planetID,
		"number":    number,
		"stage":     state.Stage,
	})
	return state, nil
}

// NamePlanet archives the planet and ends the session.
func (s *explorationService) NamePlanet(userID, planetID uint, input NameInput) (*model.Planet, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Naming planet", map[string]interface{}{
		"user_id":   userID,
		"planet_id": planetID,
	})

	var planet *model.Planet
	err := s.inTx(func(r txRepos) error {
		user, err := lockUser(r, userID)
		if err != nil {
			return err
		}

		current, err := loadState(r, user)
		if err != nil {
			return err
		}
		if current.Stage == StageIdle || current.Planet.ID != planetID {
			return ErrNotCurrentPlanet
		}
		if current.Stage != StageAwaitingName {
			return ErrWrongStage
		}

		planet = current.Planet
		planet.Archive(input.Name, s.now())
		if err := r.planets.Update(planet); err != nil {
			return fmt.Errorf("archive planet: %w", err)
		}

		user.EndSession()
		if err := r.users.Update(user); err != nil {
			return fmt.Errorf("clear session pointer: %w", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotCurrentPlanet), errors.Is(err, ErrWrongStage):
			logger.Warn("Planet naming rejected", map[string]interface{}{
				"user_id":   userID,
				"planet_id": planetID,
				"reason":    err.Error(),
			})
		default:
			logger.Error("Failed to name planet", err, map[string]interface{}{
				"user_id":   userID,
				"planet_id": planetID,
			})
		}
		return nil, err
	}

	logger.Info("Planet archived", map[string]interface{}{
		"user_id":   userID,
		"planet_id": planet.ID,
		"name":      planet.Name,
	})
	return planet, nil
}
