package repository

import (
	"testing"
	"time"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPlanetRepository_FindByIDWithDiscoveries(t *testing.T) {
	testDB, userRepo := setupUserTest(t)
	planetRepo := NewPlanetRepository(testDB)
	discoveryRepo := NewDiscoveryRepository(testDB)
	user := createTestUser(t, userRepo, "test@example.com")

	planet := &model.Planet{UserID: user.ID, Name: model.DefaultPlanetName, ThingsToDiscover: 3}
	require.NoError(t, planetRepo.Create(planet))

	// inserted out of order on purpose
	for _, n := range []int{2, 1} {
		require.NoError(t, discoveryRepo.Create(&model.Discovery{
			PlanetID:        planet.ID,
			Number:          n,
			Circumstances:   "You spot it as you are resting",
			ThingDiscovered: []string{"", "A ruin in the desert", "A ruin on a glacier"}[n],
		}))
	}

	found, err := planetRepo.FindByIDWithDiscoveries(planet.ID)
	require.NoError(t, err)
	require.Len(t, found.Discoveries, 2)
	assert.Equal(t, 1, found.Discoveries[0].Number)
	assert.Equal(t, 2, found.Discoveries[1].Number)

	_, err = planetRepo.FindByIDWithDiscoveries(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPlanetRepository_FindArchivedByUser(t *testing.T) {
	testDB, userRepo := setupUserTest(t)
	planetRepo := NewPlanetRepository(testDB)
	discoveryRepo := NewDiscoveryRepository(testDB)
	user := createTestUser(t, userRepo, "test@example.com")
	other := createTestUser(t, userRepo, "other@example.com")

	base := time.Now().Add(-time.Hour)
	older := &model.Planet{UserID: user.ID, Name: "Older", ThingsToDiscover: 1}
	older.Archive("Older", base)
	newer := &model.Planet{UserID: user.ID, Name: "Newer", ThingsToDiscover: 2}
	newer.Archive("Newer", base.Add(time.Minute))
	inProgress := &model.Planet{UserID: user.ID, Name: model.DefaultPlanetName, ThingsToDiscover: 1}
	foreign := &model.Planet{UserID: other.ID, Name: "Foreign", ThingsToDiscover: 1}
	foreign.Archive("Foreign", base)

	for _, p := range []*model.Planet{older, newer, inProgress, foreign} {
		require.NoError(t, planetRepo.Create(p))
	}
	for n, thing := range []string{"A ruin in deep water", "A ruin in the desert"} {
		require.NoError(t, discoveryRepo.Create(&model.Discovery{
			PlanetID:        newer.ID,
			Number:          n + 1,
			Circumstances:   "You come upon it suddenly",
			ThingDiscovered: thing,
		}))
	}

	summaries, err := planetRepo.FindArchivedByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, newer.ID, summaries[0].Planet.ID)
	assert.Equal(t, int64(2), summaries[0].DiscoveryCount)
	assert.Equal(t, older.ID, summaries[1].Planet.ID)
	assert.Equal(t, int64(0), summaries[1].DiscoveryCount)

	empty, err := planetRepo.FindArchivedByUser(9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPlanetRepository_Delete(t *testing.T) {
	testDB, userRepo := setupUserTest(t)
	planetRepo := NewPlanetRepository(testDB)
	discoveryRepo := NewDiscoveryRepository(testDB)
	user := createTestUser(t, userRepo, "test@example.com")

	planet := &model.Planet{UserID: user.ID, Name: "Doomed", ThingsToDiscover: 2}
	require.NoError(t, planetRepo.Create(planet))
	for n, thing := range []string{"A ruin in deep water", "A ruin in the desert"} {
		require.NoError(t, discoveryRepo.Create(&model.Discovery{
			PlanetID:        planet.ID,
			Number:          n + 1,
			Circumstances:   "You come upon it suddenly",
			ThingDiscovered: thing,
		}))
	}

	require.NoError(t, planetRepo.Delete(planet.ID))

	var orphans int64
	require.NoError(t, testDB.Model(&model.Discovery{}).Where("planet_id = ?", planet.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	_, err := planetRepo.FindByID(planet.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, planetRepo.Delete(planet.ID), gorm.ErrRecordNotFound)
}

func TestDiscoveryRepository_UniquePerPlanet(t *testing.T) {
	testDB, userRepo := setupUserTest(t)
	planetRepo := NewPlanetRepository(testDB)
	discoveryRepo := NewDiscoveryRepository(testDB)
	user := createTestUser(t, userRepo, "test@example.com")

	planet := &model.Planet{UserID: user.ID, Name: model.DefaultPlanetName, ThingsToDiscover: 3}
	require.NoError(t, planetRepo.Create(planet))
	require.NoError(t, discoveryRepo.Create(&model.Discovery{
		PlanetID: planet.ID, Number: 1, Circumstances: "c", ThingDiscovered: "A ruin in a treetop",
	}))

	tests := []struct {
		name      string
		discovery *model.Discovery
	}{
		{
			name:      "Duplicate number",
			discovery: &model.Discovery{PlanetID: planet.ID, Number: 1, Circumstances: "c", ThingDiscovered: "A ruin on a glacier"},
		},
		{
			name:      "Duplicate thing discovered",
			discovery: &model.Discovery{PlanetID: planet.ID, Number: 2, Circumstances: "c", ThingDiscovered: "A ruin in a treetop"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, discoveryRepo.Create(tt.discovery))
		})
	}

	things, err := discoveryRepo.ThingsDiscovered(planet.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A ruin in a treetop"}, things)
}

func TestDiscoveryRepository_Update(t *testing.T) {
	testDB, userRepo := setupUserTest(t)
	planetRepo := NewPlanetRepository(testDB)
	discoveryRepo := NewDiscoveryRepository(testDB)
	user := createTestUser(t, userRepo, "test@example.com")

	planet := &model.Planet{UserID: user.ID, Name: model.DefaultPlanetName, ThingsToDiscover: 1}
	require.NoError(t, planetRepo.Create(planet))
	d := &model.Discovery{PlanetID: planet.ID, Number: 1, Circumstances: "c", ThingDiscovered: "A ruin in a treetop"}
	require.NoError(t, discoveryRepo.Create(d))

	d.Describe("Vines everywhere.")
	require.NoError(t, discoveryRepo.Update(d))

	found, err := discoveryRepo.FindByPlanetAndNumber(planet.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, found.Description)
	assert.Equal(t, "Vines everywhere.", *found.Description)

	_, err = discoveryRepo.FindByPlanetAndNumber(planet.ID, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
