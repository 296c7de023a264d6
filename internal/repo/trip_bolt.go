package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/pkordes/globe-trotter/internal/domain"
)

const tripsBucket = "trips"

// BoltTripStore keeps trips as JSON values in a single BoltDB file.
// It needs no external process, which makes it the store of choice for
// local development and single-node deployments.
//
// Bolt serialises writers, so Update and AddStop are atomic
// read-modify-write transactions.
type BoltTripStore struct {
	db *bolt.DB
}

var _ TripStore = (*BoltTripStore)(nil)

// NewBoltTripStore opens (or creates) the database file at path and ensures
// the trips and users buckets exist. Callers must Close the store.
func NewBoltTripStore(path string) (*BoltTripStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("repo.NewBoltTripStore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{tripsBucket, usersBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.NewBoltTripStore: create buckets: %w", err)
	}

	return &BoltTripStore{db: db}, nil
}

// Close releases the database file lock.
func (s *BoltTripStore) Close() error {
	return s.db.Close()
}

// Create stores the trip under a fresh UUID.
func (s *BoltTripStore) Create(_ context.Context, trip domain.Trip) (string, error) {
	trip.ID = uuid.NewString()
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}
	trip.UpdatedAt = trip.CreatedAt
	normalizeTrip(&trip)

	err := s.db.Update(func(tx *bolt.Tx) error {
		return putTrip(tx.Bucket([]byte(tripsBucket)), trip)
	})
	if err != nil {
		return "", storeErr("repo.BoltTripStore.Create", err)
	}
	return trip.ID, nil
}

// GetByID returns domain.ErrNotFound when the key is absent.
func (s *BoltTripStore) GetByID(_ context.Context, id string) (domain.Trip, error) {
	var trip domain.Trip
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		trip, err = getTrip(tx.Bucket([]byte(tripsBucket)), id)
		return err
	})
	if err != nil {
		return domain.Trip{}, storeErr("repo.BoltTripStore.GetByID", err)
	}
	return trip, nil
}

// ListByUser scans the bucket. Bolt has no secondary indexes, so membership
// and ordering are resolved in memory.
func (s *BoltTripStore) ListByUser(_ context.Context, userID string) ([]domain.Trip, error) {
	trips := []domain.Trip{}

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(tripsBucket)).ForEach(func(_, v []byte) error {
			var t domain.Trip
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if t.HasCollaborator(userID) {
				trips = append(trips, t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, storeErr("repo.BoltTripStore.ListByUser", err)
	}

	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})
	return trips, nil
}

// Update applies the patch inside one write transaction.
func (s *BoltTripStore) Update(_ context.Context, id string, patch domain.TripPatch) error {
	err := s.modify(id, func(t domain.Trip) domain.Trip {
		return patch.Apply(t)
	})
	if err != nil {
		return storeErr("repo.BoltTripStore.Update", err)
	}
	return nil
}

// AddStop appends the stop inside one write transaction.
func (s *BoltTripStore) AddStop(_ context.Context, id string, stop domain.Stop) error {
	err := s.modify(id, func(t domain.Trip) domain.Trip {
		t.Stops = append(t.Stops, domain.CloneStops([]domain.Stop{stop})...)
		return t
	})
	if err != nil {
		return storeErr("repo.BoltTripStore.AddStop", err)
	}
	return nil
}

func (s *BoltTripStore) modify(id string, fn func(domain.Trip) domain.Trip) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(tripsBucket))
		t, err := getTrip(b, id)
		if err != nil {
			return err
		}
		t = fn(t)
		t.ID = id
		t.UpdatedAt = time.Now().UTC()
		normalizeTrip(&t)
		return putTrip(b, t)
	})
}

func getTrip(b *bolt.Bucket, id string) (domain.Trip, error) {
	v := b.Get([]byte(id))
	if v == nil {
		return domain.Trip{}, domain.ErrNotFound
	}
	var t domain.Trip
	if err := json.Unmarshal(v, &t); err != nil {
		return domain.Trip{}, errors.Join(errors.New("decode trip"), err)
	}
	normalizeTrip(&t)
	return t, nil
}

func putTrip(b *bolt.Bucket, t domain.Trip) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return b.Put([]byte(t.ID), data)
}

// normalizeTrip replaces nil collections with empty ones so every store
// returns the same shape. Stops are copied first so the caller's slices are
// never written through.
func normalizeTrip(t *domain.Trip) {
	t.Stops = domain.CloneStops(t.Stops)
	for i := range t.Stops {
		if t.Stops[i].Activities == nil {
			t.Stops[i].Activities = []domain.Activity{}
		}
	}
	if t.Collaborators == nil {
		t.Collaborators = []string{}
	}
}
