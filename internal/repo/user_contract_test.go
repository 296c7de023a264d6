package repo_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/repo"
	"github.com/pkordes/globe-trotter/testutil"
)

func profileFixture() domain.Profile {
	return domain.NewProfile(domain.User{
		UID:         "user-" + uuid.NewString(),
		DisplayName: "Ana Traveler",
		Email:       "ana@example.com",
		PhotoURL:    "https://example.com/ana.jpg",
	}, time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC))
}

// runUserStoreSuite exercises the UserStore contract against one implementation.
func runUserStoreSuite(t *testing.T, open func(t *testing.T) repo.UserStore) {
	t.Run("ensure inserts once and never overwrites", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		in := profileFixture()

		got, created, err := s.Ensure(ctx, in)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, in.UID, got.UID)
		assert.Equal(t, "Ana Traveler", got.DisplayName)
		assert.True(t, in.CreatedAt.Equal(got.CreatedAt))

		again := in
		again.DisplayName = "Someone Else"
		got, created, err = s.Ensure(ctx, again)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "Ana Traveler", got.DisplayName, "an existing profile is kept")
	})

	t.Run("get unknown uid is not found", func(t *testing.T) {
		_, err := open(t).Get(context.Background(), "user-"+uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update merges only set fields", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		in := profileFixture()
		_, _, err := s.Ensure(ctx, in)
		require.NoError(t, err)

		name := "Ana T."
		got, err := s.Update(ctx, in.UID, domain.ProfilePatch{DisplayName: &name})
		require.NoError(t, err)
		assert.Equal(t, "Ana T.", got.DisplayName)
		assert.Equal(t, in.PhotoURL, got.PhotoURL)
		assert.Equal(t, in.Email, got.Email)

		read, err := s.Get(ctx, in.UID)
		require.NoError(t, err)
		assert.Equal(t, "Ana T.", read.DisplayName)
	})

	t.Run("update unknown uid is not found", func(t *testing.T) {
		name := "x"
		_, err := open(t).Update(context.Background(), "user-"+uuid.NewString(), domain.ProfilePatch{DisplayName: &name})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBoltUserStore(t *testing.T) {
	runUserStoreSuite(t, func(t *testing.T) repo.UserStore {
		s, err := repo.NewBoltTripStore(filepath.Join(t.TempDir(), "users.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s.Users()
	})
}

func TestPGUserStore(t *testing.T) {
	runUserStoreSuite(t, func(t *testing.T) repo.UserStore {
		return repo.NewPGUserStore(testutil.NewTx(t))
	})
}

func TestMongoUserStore(t *testing.T) {
	runUserStoreSuite(t, func(t *testing.T) repo.UserStore {
		return repo.NewMongoUserStore(testutil.NewMongoDatabase(t))
	})
}
