package service

import (
	"testing"
	"time"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (r testRepos) archivedPlanet(t *testing.T, userID uint, name string, archivedAt time.Time, things ...string) *model.Planet {
	t.Helper()
	planet := &model.Planet{UserID: userID, ThingsToDiscover: len(things)}
	planet.Archive(name, archivedAt)
	require.NoError(t, r.planets.Create(planet))
	for i, thing := range things {
		d := &model.Discovery{
			PlanetID:        planet.ID,
			Number:          i + 1,
			Circumstances:   prompt.Circumstances[0],
			ThingDiscovered: thing,
		}
		d.Describe("Notes on " + thing)
		require.NoError(t, r.discoveries.Create(d))
	}
	return planet
}

func setupArchiveTest(t *testing.T) (ArchiveService, testRepos, *model.User) {
	repos := setupRepos(t)
	svc := NewArchiveService(repos.db, repos.planets, repos.discoveries)
	return svc, repos, repos.createUser(t, "archivist@example.com")
}

func TestArchiveService_ListArchived(t *testing.T) {
	svc, repos, user := setupArchiveTest(t)
	other := repos.createUser(t, "other@example.com")

	now := time.Now().UTC()
	repos.archivedPlanet(t, user.ID, "Older", now.Add(-2*time.Hour), "A ruin", "A cave")
	repos.archivedPlanet(t, user.ID, "Newer", now.Add(-time.Hour), "A lake")
	repos.archivedPlanet(t, other.ID, "Foreign", now, "A tower")

	explorer := NewExplorationService(repos.db, repos.users, repos.planets, repos.discoveries, prompt.NewSeededGenerator(7))
	_, _, err := explorer.Start(user.ID, StartInput{ThingsToDiscover: 1})
	require.NoError(t, err)

	summaries, err := svc.ListArchived(user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2, "in-progress and foreign planets are excluded")
	assert.Equal(t, "Newer", summaries[0].Planet.Name)
	assert.Equal(t, int64(1), summaries[0].DiscoveryCount)
	assert.Equal(t, "Older", summaries[1].Planet.Name)
	assert.Equal(t, int64(2), summaries[1].DiscoveryCount)

	empty, err := svc.ListArchived(9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestArchiveService_GetPlanet(t *testing.T) {
	svc, repos, user := setupArchiveTest(t)
	other := repos.createUser(t, "other@example.com")
	planet := repos.archivedPlanet(t, user.ID, "Kepler", time.Now(), "A ruin", "A cave", "A lake")

	detail, err := svc.GetPlanet(user.ID, planet.ID)
	require.NoError(t, err)
	assert.False(t, detail.InProgress)
	require.Len(t, detail.Planet.Discoveries, 3)
	for i, d := range detail.Planet.Discoveries {
		assert.Equal(t, i+1, d.Number)
	}

	_, err = svc.GetPlanet(other.ID, planet.ID)
	assert.ErrorIs(t, err, ErrPlanetForbidden)

	_, err = svc.GetPlanet(user.ID, 9999)
	assert.ErrorIs(t, err, ErrPlanetNotFound)
}

func TestArchiveService_GetPlanetInProgress(t *testing.T) {
	svc, repos, user := setupArchiveTest(t)
	explorer := NewExplorationService(repos.db, repos.users, repos.planets, repos.discoveries, prompt.NewSeededGenerator(7))
	state, _, err := explorer.Start(user.ID, StartInput{ThingsToDiscover: 2})
	require.NoError(t, err)

	detail, err := svc.GetPlanet(user.ID, state.Planet.ID)
	require.NoError(t, err)
	assert.True(t, detail.InProgress)
	assert.Len(t, detail.Planet.Discoveries, 1)
}

func TestArchiveService_RenamePlanet(t *testing.T) {
	svc, repos, user := setupArchiveTest(t)
	other := repos.createUser(t, "other@example.com")
	planet := repos.archivedPlanet(t, user.ID, "Kepler", time.Now(), "A ruin")

	tests := []struct {
		name      string
		userID    uint
		planetID  uint
		input     NameInput
		wantErr   error
		wantField string
	}{
		{name: "Valid rename", userID: user.ID, planetID: planet.ID, input: NameInput{Name: "  New Haven "}},
		{name: "Blank name", userID: user.ID, planetID: planet.ID, input: NameInput{Name: "   "}, wantField: "name"},
		{name: "Name too long", userID: user.ID, planetID: planet.ID, input: NameInput{Name: "abcdefghijklmnopqrstuvwxyz01234"}, wantField: "name"},
		{name: "Another explorer", userID: other.ID, planetID: planet.ID, input: NameInput{Name: "Stolen"}, wantErr: ErrPlanetForbidden},
		{name: "Missing planet", userID: user.ID, planetID: 9999, input: NameInput{Name: "Ghost"}, wantErr: ErrPlanetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renamed, err := svc.RenamePlanet(tt.userID, tt.planetID, tt.input)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, renamed)
			case tt.wantField != "":
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, "New Haven", renamed.Name)
			}
		})
	}

	stored, err := repos.planets.FindByID(planet.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Haven", stored.Name)
}

func TestArchiveService_RejectsPlanetInProgress(t *testing.T) {
	svc, repos, user := setupArchiveTest(t)
	explorer := NewExplorationService(repos.db, repos.users, repos.planets, repos.discoveries, prompt.NewSeededGenerator(7))
	state, _, err := explorer.Start(user.ID, StartInput{ThingsToDiscover: 2})
	require.NoError(t, err)
	planetID := state.Planet.ID

	_, err = svc.RenamePlanet(user.ID, planetID, NameInput{Name: "Early"})
	assert.ErrorIs(t, err, ErrPlanetNotArchived)

	_, err = svc.EditDiscovery(user.ID, planetID, 1, LogInput{Description: "Early notes"})
	assert.ErrorIs(t, err, ErrPlanetNotArchived)

	assert.ErrorIs(t, svc.DeletePlanet(user.ID, planetID), ErrPlanetNotArchived)
	assert.Equal(t, int64(1), repos.count(t, &model.Planet{}))
}

func TestArchiveService_EditDiscovery(t *testing.T) {
	svc, repos, user := setupArchiveTest(t)
	other := repos.createUser(t, "other@example.com")
	planet := repos.archivedPlanet(t, user.ID, "Kepler", time.Now(), "A ruin", "A cave")

	edited, err := svc.EditDiscovery(user.ID, planet.ID, 2, LogInput{Description: " Deeper than it looked. "})
	require.NoError(t, err)
	assert.Equal(t, "Deeper than it looked.", *edited.Description)
	assert.Equal(t, "A cave", edited.ThingDiscovered, "prompt fields are immutable")

	untouched, err := repos.discoveries.FindByPlanetAndNumber(planet.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Notes on A ruin", *untouched.Description)

	_, err = svc.EditDiscovery(user.ID, planet.ID, 3, LogInput{Description: "Nothing"})
	assert.ErrorIs(t, err, ErrDiscoveryNotFound)

	_, err = svc.EditDiscovery(other.ID, planet.ID, 1, LogInput{Description: "Mine now"})
	assert.ErrorIs(t, err, ErrPlanetForbidden)

	_, err = svc.EditDiscovery(user.ID, planet.ID, 1, LogInput{Description: "  "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)
}

func TestArchiveService_DeletePlanet(t *testing.T) {
	svc, repos, user := setupArchiveTest(t)
	other := repos.createUser(t, "other@example.com")
	doomed := repos.archivedPlanet(t, user.ID, "Doomed", time.Now(), "A ruin", "A cave")
	kept := repos.archivedPlanet(t, user.ID, "Kept", time.Now(), "A lake")

	assert.ErrorIs(t, svc.DeletePlanet(other.ID, doomed.ID), ErrPlanetForbidden)

	require.NoError(t, svc.DeletePlanet(user.ID, doomed.ID))
	assert.ErrorIs(t, svc.DeletePlanet(user.ID, doomed.ID), ErrPlanetNotFound)

	assert.Equal(t, int64(1), repos.count(t, &model.Planet{}))
	assert.Equal(t, int64(1), repos.count(t, &model.Discovery{}), "no orphaned discoveries")

	remaining, err := repos.discoveries.FindByPlanet(kept.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
