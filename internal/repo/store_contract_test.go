package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/repo"
)

// storeHarness describes one TripStore implementation to the shared suite.
type storeHarness struct {
	// open returns a fresh, isolated store for a single test.
	open func(t *testing.T) repo.TripStore
	// missingID returns a well-formed id that was never issued.
	missingID func() string
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Every fixture gets its own owner so tests sharing a database cannot see
// each other's rows. Times are whole seconds because Mongo stores millis.
func tripFixture() domain.Trip {
	owner := "user-" + uuid.NewString()
	return domain.Trip{
		OwnerID:       owner,
		Title:         "Tokyo Adventure",
		Description:   "Cherry blossoms",
		Destination:   "Tokyo, Japan",
		StartDate:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Budget:        3000,
		Spent:         0,
		CoverImage:    "https://example.com/tokyo.jpg",
		IsPublic:      false,
		Stops:         []domain.Stop{},
		Collaborators: []string{owner},
		CreatedAt:     time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
	}
}

func stopFixture(id, city string, costs ...domain.Money) domain.Stop {
	s := domain.Stop{ID: id, City: city, DateRange: "Apr 1 - Apr 3", Budget: 500, Activities: []domain.Activity{}}
	for i, c := range costs {
		s.Activities = append(s.Activities, domain.Activity{
			ID:       fmt.Sprintf("%s-a%d", id, i),
			Title:    "item",
			Cost:     c,
			Category: domain.CategoryActivity,
		})
	}
	return s
}

// runTripStoreSuite exercises the TripStore contract against one implementation.
func runTripStoreSuite(t *testing.T, h storeHarness) {
	t.Run("create then get round-trips every field", func(t *testing.T) {
		s := h.open(t)
		ctx := context.Background()
		in := tripFixture()

		id, err := s.Create(ctx, in)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := s.GetByID(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, id, got.ID)
		assert.Equal(t, in.OwnerID, got.OwnerID)
		assert.Equal(t, in.Title, got.Title)
		assert.Equal(t, in.Description, got.Description)
		assert.Equal(t, in.Destination, got.Destination)
		assert.True(t, in.StartDate.Equal(got.StartDate), "StartDate mismatch: %v", got.StartDate)
		assert.True(t, in.EndDate.Equal(got.EndDate), "EndDate mismatch: %v", got.EndDate)
		assert.Equal(t, in.Budget, got.Budget)
		assert.Equal(t, in.Spent, got.Spent)
		assert.Equal(t, in.CoverImage, got.CoverImage)
		assert.Equal(t, in.IsPublic, got.IsPublic)
		assert.Equal(t, []domain.Stop{}, got.Stops)
		assert.Equal(t, in.Collaborators, got.Collaborators)
		assert.True(t, in.CreatedAt.Equal(got.CreatedAt), "CreatedAt mismatch: %v", got.CreatedAt)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("create fills a zero CreatedAt", func(t *testing.T) {
		s := h.open(t)
		ctx := context.Background()
		in := tripFixture()
		in.CreatedAt = time.Time{}

		id, err := s.Create(ctx, in)
		require.NoError(t, err)

		got, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("ids are unique", func(t *testing.T) {
		s := h.open(t)
		ctx := context.Background()

		a, err := s.Create(ctx, tripFixture())
		require.NoError(t, err)
		b, err := s.Create(ctx, tripFixture())
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		s := h.open(t)
		_, err := s.GetByID(context.Background(), h.missingID())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("get malformed id is not found", func(t *testing.T) {
		s := h.open(t)
		_, err := s.GetByID(context.Background(), "not-an-id")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list returns collaborator trips newest first", func(t *testing.T) {
		s := h.open(t)
		ctx := context.Background()

		older := tripFixture()
		older.Title = "Older"
		user := older.OwnerID

		newer := tripFixture()
		newer.Title = "Newer"
		newer.OwnerID = user
		newer.Collaborators = []string{user}
		newer.CreatedAt = older.CreatedAt.Add(24 * time.Hour)

		shared := tripFixture()
		shared.Title = "Shared"
		shared.Collaborators = append(shared.Collaborators, user)
		shared.CreatedAt = older.CreatedAt.Add(time.Hour)

		stranger := tripFixture()
		stranger.Title = "Stranger"
		stranger.IsPublic = true

		for _, tr := range []domain.Trip{older, newer, shared, stranger} {
			_, err := s.Create(ctx, tr)
			require.NoError(t, err)
		}

		got, err := s.ListByUser(ctx, user)
		require.NoError(t, err)

		var titles []string
		for _, tr := range got {
			titles = append(titles, tr.Title)
		}
		assert.Equal(t, []string{"Newer", "Shared", "Older"}, titles)
	})

	t.Run("list for a user with no trips is empty, not nil", func(t *testing.T) {
		s := h.open(t)
		got, err := s.ListByUser(context.Background(), "nobody-"+uuid.NewString())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("update merges only the given fields", func(t *testing.T) {
		s := h.open(t)
		ctx := context.Background()
		in := tripFixture()

		id, err := s.Create(ctx, in)
		require.NoError(t, err)

		title := "Renamed"
		spent := domain.Money(750)
		err = s.Update(ctx, id, domain.TripPatch{Title: &title, Spent: &spent})
		require.NoError(t, err)

		got, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, domain.Money(750), got.Spent)
		assert.Equal(t, in.Destination, got.Destination)
		assert.Equal(t, in.Budget, got.Budget)
		assert.True(t, in.StartDate.Equal(got.StartDate))
	})

	t.Run("update replaces the whole stop list", func(t *testing.T) {
		s := h.open(t)
		ctx := context.Background()

		id, err := s.Create(ctx, tripFixture())
		require.NoError(t, err)
		require.NoError(t, s.AddStop(ctx, id, stopFixture("s0", "Kyoto")))

		stops := []domain.Stop{stopFixture("s1", "Tokyo", 450, 100), stopFixture("s2", "Osaka")}
		require.NoError(t, s.Update(ctx, id, domain.TripPatch{Stops: &stops}))

		got, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, stops, got.Stops)
	})

	t.Run("update unknown id is not found", func(t *testing.T) {
		s := h.open(t)
		title := "x"
		err := s.Update(context.Background(), h.missingID(), domain.TripPatch{Title: &title})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("add stop appends in order", func(t *testing.T) {
		s := h.open(t)
		ctx := context.Background()

		id, err := s.Create(ctx, tripFixture())
		require.NoError(t, err)

		first := stopFixture("s1", "Tokyo", 120)
		second := stopFixture("s2", "Kyoto")
		require.NoError(t, s.AddStop(ctx, id, first))
		require.NoError(t, s.AddStop(ctx, id, second))

		got, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []domain.Stop{first, second}, got.Stops)
	})

	t.Run("add stop to unknown id is not found", func(t *testing.T) {
		s := h.open(t)
		err := s.AddStop(context.Background(), h.missingID(), stopFixture("s1", "Tokyo"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
