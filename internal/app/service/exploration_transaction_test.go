package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/prompt"
	"github.com/ikkim/captains-log/internal/app/repository"
	"github.com/ikkim/captains-log/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errDiskFull = errors.New("disk full")

// brokenDiscoveryCreates behaves like the wrapped repository except that
// every Create fails, inside transactions too.
type brokenDiscoveryCreates struct {
	repository.DiscoveryRepository
}

func (b brokenDiscoveryCreates) WithTx(tx *gorm.DB) repository.DiscoveryRepository {
	return brokenDiscoveryCreates{DiscoveryRepository: b.DiscoveryRepository.WithTx(tx)}
}

func (b brokenDiscoveryCreates) Create(*model.Discovery) error {
	return errDiskFull
}

func TestExplorationService_FailedLogLeavesNothingBehind(t *testing.T) {
	svc, repos, user := setupExplorationTest(t)
	broken := NewExplorationService(repos.db, repos.users, repos.planets,
		brokenDiscoveryCreates{repos.discoveries}, prompt.NewSeededGenerator(2))

	state, _, err := svc.Start(user.ID, StartInput{ThingsToDiscover: 2})
	require.NoError(t, err)
	planetID := state.Planet.ID
	before, err := repos.users.FindByID(user.ID)
	require.NoError(t, err)

	_, err = broken.LogDiscovery(user.ID, planetID, 1, LogInput{Description: "A rock."})
	require.ErrorIs(t, err, errDiskFull)

	first, err := repos.discoveries.FindByPlanetAndNumber(planetID, 1)
	require.NoError(t, err)
	assert.True(t, first.IsPending(), "description written by the failed transition is rolled back")

	after, err := repos.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Session(), after.Session())
	assert.Equal(t, int64(1), repos.count(t, &model.Planet{}))
	assert.Equal(t, int64(1), repos.count(t, &model.Discovery{}))

	current, err := svc.Current(user.ID)
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingDescription, current.Stage)
	assert.Equal(t, 1, current.Discovery.Number)

	state, err = svc.LogDiscovery(user.ID, planetID, 1, LogInput{Description: "A rock."})
	require.NoError(t, err)
	assert.Equal(t, 2, state.Discovery.Number)
}

func TestExplorationService_FailedStartLeavesNothingBehind(t *testing.T) {
	_, repos, user := setupExplorationTest(t)
	broken := NewExplorationService(repos.db, repos.users, repos.planets,
		brokenDiscoveryCreates{repos.discoveries}, prompt.NewSeededGenerator(2))

	_, _, err := broken.Start(user.ID, StartInput{ThingsToDiscover: 3})
	require.ErrorIs(t, err, errDiskFull)

	assert.Zero(t, repos.count(t, &model.Planet{}))
	assert.Zero(t, repos.count(t, &model.Discovery{}))
	stored, err := repos.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Session())
}

func setupSharedExplorationTest(t *testing.T) (ExplorationService, testRepos, *model.User) {
	t.Helper()
	conn, err := db.SetupFileTestDB(filepath.Join(t.TempDir(), "explore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(conn) })

	repos := testRepos{
		db:          conn,
		users:       repository.NewUserRepository(conn),
		planets:     repository.NewPlanetRepository(conn),
		discoveries: repository.NewDiscoveryRepository(conn),
	}
	svc := NewExplorationService(conn, repos.users, repos.planets, repos.discoveries, prompt.NewSeededGenerator(4))
	return svc, repos, repos.createUser(t, "racer@example.com")
}

func TestExplorationService_ConcurrentStart(t *testing.T) {
	svc, repos, user := setupSharedExplorationTest(t)

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started []uint
		errs    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, resumed, err := svc.Start(user.ID, StartInput{ThingsToDiscover: 3})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if !resumed {
				started = append(started, state.Planet.ID)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, started, 1, "exactly one caller creates the planet")
	assert.Equal(t, int64(1), repos.count(t, &model.Planet{}))
	assert.Equal(t, int64(1), repos.count(t, &model.Discovery{}))

	stored, err := repos.users.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Session())
	assert.Equal(t, started[0], stored.Session().PlanetID)
}

func TestExplorationService_ConcurrentLogDiscovery(t *testing.T) {
	svc, repos, user := setupSharedExplorationTest(t)

	state, _, err := svc.Start(user.ID, StartInput{ThingsToDiscover: 3})
	require.NoError(t, err)
	planetID := state.Planet.ID

	const callers = 6
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		logged     int
		rejected   int
		unexpected []error
	)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LogDiscovery(user.ID, planetID, 1, LogInput{Description: fmt.Sprintf("Entry from caller %d", i)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				logged++
			case errors.Is(err, ErrNotCurrentDiscovery):
				rejected++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, unexpected)
	assert.Equal(t, 1, logged)
	assert.Equal(t, callers-1, rejected)
	assert.Equal(t, int64(2), repos.count(t, &model.Discovery{}))

	current, err := svc.Current(user.ID)
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingDescription, current.Stage)
	assert.Equal(t, 2, current.Discovery.Number)
}
