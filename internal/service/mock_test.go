package service_test

import (
	"context"
	"time"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/repo"
)

// mockTripStore is a hand-written test double for repo.TripStore.
// Each method is a function field; set only the ones your test needs.
// Calling a method whose field is nil panics, which flags an unexpected call.
type mockTripStore struct {
	create     func(ctx context.Context, trip domain.Trip) (string, error)
	getByID    func(ctx context.Context, id string) (domain.Trip, error)
	listByUser func(ctx context.Context, userID string) ([]domain.Trip, error)
	update     func(ctx context.Context, id string, patch domain.TripPatch) error
	addStop    func(ctx context.Context, id string, stop domain.Stop) error
}

func (m *mockTripStore) Create(ctx context.Context, trip domain.Trip) (string, error) {
	return m.create(ctx, trip)
}
func (m *mockTripStore) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripStore) ListByUser(ctx context.Context, userID string) ([]domain.Trip, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockTripStore) Update(ctx context.Context, id string, patch domain.TripPatch) error {
	return m.update(ctx, id, patch)
}
func (m *mockTripStore) AddStop(ctx context.Context, id string, stop domain.Stop) error {
	return m.addStop(ctx, id, stop)
}

// compile-time check: mockTripStore must satisfy repo.TripStore.
var _ repo.TripStore = (*mockTripStore)(nil)

// memoryStore is a tiny in-memory TripStore for tests that need a create
// followed by a read.
func memoryStore() (*mockTripStore, map[string]domain.Trip) {
	trips := map[string]domain.Trip{}
	m := &mockTripStore{
		create: func(_ context.Context, t domain.Trip) (string, error) {
			t.ID = "trip-1"
			trips[t.ID] = t
			return t.ID, nil
		},
		getByID: func(_ context.Context, id string) (domain.Trip, error) {
			t, ok := trips[id]
			if !ok {
				return domain.Trip{}, domain.ErrNotFound
			}
			return t, nil
		},
	}
	return m, trips
}

// ---- fixtures --------------------------------------------------------------

var (
	alice = &domain.User{UID: "alice", DisplayName: "Alice"}
	bob   = &domain.User{UID: "bob", DisplayName: "Bob"}
)

// fixedNow is "today" for every service test.
var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func aliceTrip(id string) domain.Trip {
	return domain.Trip{
		ID:            id,
		OwnerID:       "alice",
		Title:         "Tokyo Adventure",
		Destination:   "Tokyo, Japan",
		StartDate:     day(2026, 11, 1),
		EndDate:       day(2026, 11, 10),
		Budget:        3000,
		Stops:         []domain.Stop{},
		Collaborators: []string{"alice"},
	}
}

// mockUserStore is a hand-written test double for repo.UserStore.
type mockUserStore struct {
	ensure func(ctx context.Context, p domain.Profile) (domain.Profile, bool, error)
	get    func(ctx context.Context, uid string) (domain.Profile, error)
	update func(ctx context.Context, uid string, patch domain.ProfilePatch) (domain.Profile, error)
}

func (m *mockUserStore) Ensure(ctx context.Context, p domain.Profile) (domain.Profile, bool, error) {
	return m.ensure(ctx, p)
}
func (m *mockUserStore) Get(ctx context.Context, uid string) (domain.Profile, error) {
	return m.get(ctx, uid)
}
func (m *mockUserStore) Update(ctx context.Context, uid string, patch domain.ProfilePatch) (domain.Profile, error) {
	return m.update(ctx, uid, patch)
}

var _ repo.UserStore = (*mockUserStore)(nil)

// memoryUsers is an in-memory UserStore with Ensure and Update semantics.
func memoryUsers() (*mockUserStore, map[string]domain.Profile) {
	users := map[string]domain.Profile{}
	m := &mockUserStore{
		ensure: func(_ context.Context, p domain.Profile) (domain.Profile, bool, error) {
			if existing, ok := users[p.UID]; ok {
				return existing, false, nil
			}
			users[p.UID] = p
			return p, true, nil
		},
		update: func(_ context.Context, uid string, patch domain.ProfilePatch) (domain.Profile, error) {
			p, ok := users[uid]
			if !ok {
				return domain.Profile{}, domain.ErrNotFound
			}
			p = patch.Apply(p)
			users[uid] = p
			return p, nil
		},
	}
	return m, users
}
