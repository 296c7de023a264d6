package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/pkordes/globe-trotter/internal/domain"
)

const usersBucket = "users"

// boltUserStore keeps profiles as JSON values in the users bucket of the
// same file as the trips.
type boltUserStore struct {
	db *bolt.DB
}

var _ UserStore = (*boltUserStore)(nil)

// Users returns a UserStore sharing the trip store's database file.
// It is closed together with the trip store.
func (s *BoltTripStore) Users() UserStore {
	return &boltUserStore{db: s.db}
}

func (s *boltUserStore) Ensure(_ context.Context, p domain.Profile) (domain.Profile, bool, error) {
	var (
		stored  domain.Profile
		created bool
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(usersBucket))
		existing, err := getProfile(b, p.UID)
		if err == nil {
			stored = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		p.UpdatedAt = p.CreatedAt
		stored, created = p, true
		return putProfile(b, p)
	})
	if err != nil {
		return domain.Profile{}, false, storeErr("repo.BoltUserStore.Ensure", err)
	}
	return stored, created, nil
}

func (s *boltUserStore) Get(_ context.Context, uid string) (domain.Profile, error) {
	var p domain.Profile
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		p, err = getProfile(tx.Bucket([]byte(usersBucket)), uid)
		return err
	})
	if err != nil {
		return domain.Profile{}, storeErr("repo.BoltUserStore.Get", err)
	}
	return p, nil
}

func (s *boltUserStore) Update(_ context.Context, uid string, patch domain.ProfilePatch) (domain.Profile, error) {
	var p domain.Profile
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(usersBucket))
		existing, err := getProfile(b, uid)
		if err != nil {
			return err
		}
		p = patch.Apply(existing)
		p.UpdatedAt = time.Now().UTC()
		return putProfile(b, p)
	})
	if err != nil {
		return domain.Profile{}, storeErr("repo.BoltUserStore.Update", err)
	}
	return p, nil
}

func getProfile(b *bolt.Bucket, uid string) (domain.Profile, error) {
	v := b.Get([]byte(uid))
	if v == nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	var p domain.Profile
	if err := json.Unmarshal(v, &p); err != nil {
		return domain.Profile{}, errors.Join(errors.New("decode profile"), err)
	}
	return p, nil
}

func putProfile(b *bolt.Bucket, p domain.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return b.Put([]byte(p.UID), data)
}
