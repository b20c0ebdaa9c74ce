package bots

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Omnitrade/internal/domain/models"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()
	bots := r.List()
	require.Len(t, bots, 10)

	active := map[string]bool{}
	for i, b := range bots {
		assert.Equal(t, strconv.Itoa(i+1), b.ID)
		active[b.ID] = b.Active
	}
	assert.Equal(t, map[string]bool{
		"1": true, "2": true, "3": false, "4": false, "5": true,
		"6": true, "7": false, "8": false, "9": true, "10": false,
	}, active)

	g := bots[9]
	assert.True(t, g.IsGuardian)
	assert.Equal(t, models.KindGuardian, g.Kind)
	assert.Equal(t, GuardianName, g.Name)
}

func TestNewRegistry_Validation(t *testing.T) {
	t.Parallel()

	guardian := models.BotDefinition{ID: "g", Name: "G", Kind: models.KindGuardian, IsGuardian: true}
	bot := models.BotDefinition{ID: "a", Name: "A", Kind: models.KindMomentumMicro}

	tests := []struct {
		name string
		defs []models.BotDefinition
	}{
		{"empty", nil},
		{"no guardian", []models.BotDefinition{bot}},
		{"two guardians", []models.BotDefinition{guardian, {ID: "h", Name: "H", Kind: models.KindGuardian, IsGuardian: true}}},
		{"duplicate id", []models.BotDefinition{guardian, bot, {ID: "a", Name: "B", Kind: models.KindRangeScalper}}},
		{"duplicate name", []models.BotDefinition{guardian, bot, {ID: "b", Name: "A", Kind: models.KindRangeScalper}}},
		{"unknown kind", []models.BotDefinition{guardian, {ID: "b", Name: "B", Kind: "GRID"}}},
		{"guardian flag mismatch", []models.BotDefinition{guardian, {ID: "b", Name: "B", Kind: models.KindGuardian}}},
		{"missing id", []models.BotDefinition{guardian, {Name: "B", Kind: models.KindRangeScalper}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRegistry(tt.defs)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestRegistry_FindByID(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()
	b, err := r.FindByID("6")
	require.NoError(t, err)
	assert.Equal(t, models.KindSessionOpenAlpha, b.Kind)

	_, err = r.FindByID("42")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegistry_ActivateIdempotent(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()
	b, err := r.Activate("3")
	require.NoError(t, err)
	assert.True(t, b.Active)
	once := r.List()

	b, err = r.Activate("3")
	require.NoError(t, err)
	assert.True(t, b.Active)
	assert.Equal(t, once, r.List())
}

func TestRegistry_ActivateUnknownLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()
	before := r.List()
	_, err := r.Activate("nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, before, r.List())
}

func TestRegistry_ListIsACopy(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()
	bots := r.List()
	bots[2].Active = true
	b, err := r.FindByID("3")
	require.NoError(t, err)
	assert.False(t, b.Active)
}

func TestRegistry_ConcurrentActivateAndList(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()
	var wg sync.WaitGroup
	for _, id := range []string{"3", "4", "7", "8", "10"} {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			_, _ = r.Activate(id)
		}(id)
		go func() {
			defer wg.Done()
			assert.Len(t, r.List(), 10)
		}()
	}
	wg.Wait()

	for _, b := range r.List() {
		assert.True(t, b.Active, b.ID)
	}
}
