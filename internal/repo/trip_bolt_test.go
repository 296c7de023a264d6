package repo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/repo"
)

func newBoltStore(t *testing.T) repo.TripStore {
	t.Helper()
	s, err := repo.NewBoltTripStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "open bolt store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltTripStore(t *testing.T) {
	runTripStoreSuite(t, storeHarness{
		open:      newBoltStore,
		missingID: uuid.NewString,
	})
}

func TestBoltTripStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := repo.NewBoltTripStore(path)
	require.NoError(t, err)
	id, err := s.Create(ctx, tripFixture())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = repo.NewBoltTripStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo Adventure", got.Title)
}

func TestBoltTripStore_DoesNotWriteThroughCallerStops(t *testing.T) {
	s := newBoltStore(t)
	ctx := context.Background()

	trip := tripFixture()
	trip.Stops = []domain.Stop{{ID: "s1", City: "Kyoto"}}

	id, err := s.Create(ctx, trip)
	require.NoError(t, err)
	assert.Nil(t, trip.Stops[0].Activities, "caller's stop must not be normalized in place")

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Stops, 1)
	assert.NotNil(t, got.Stops[0].Activities)
}
