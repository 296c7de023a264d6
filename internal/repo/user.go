package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// UserStore defines the persistence operations for user profiles, keyed by
// the identity provider's uid.
//
// Every failure other than domain.ErrNotFound wraps domain.ErrStoreUnavailable.
type UserStore interface {
	// Ensure inserts p unless a profile with p.UID already exists, and
	// returns the stored profile. created reports whether p was inserted.
	// An existing profile is never overwritten.
	Ensure(ctx context.Context, p domain.Profile) (stored domain.Profile, created bool, err error)

	// Get returns the profile for uid.
	// Returns domain.ErrNotFound if there is none.
	Get(ctx context.Context, uid string) (domain.Profile, error)

	// Update merges the non-nil fields of patch and returns the result.
	// Returns domain.ErrNotFound if there is no profile for uid.
	Update(ctx context.Context, uid string, patch domain.ProfilePatch) (domain.Profile, error)
}

// pgUserStore is the Postgres implementation of UserStore.
type pgUserStore struct {
	db db
}

// NewPGUserStore constructs a UserStore over the users table.
func NewPGUserStore(db db) UserStore {
	return &pgUserStore{db: db}
}

const userColumns = `uid, email, display_name, photo_url, created_at, updated_at`

// Ensure inserts and reads back in one statement. The fallback SELECT runs
// on the statement snapshot, so it only returns a row the insert skipped.
func (r *pgUserStore) Ensure(ctx context.Context, p domain.Profile) (domain.Profile, bool, error) {
	const q = `
		WITH ins AS (
			INSERT INTO users (uid, email, display_name, photo_url, created_at, updated_at)
			VALUES (@uid, @email, @display_name, @photo_url,
			        COALESCE(@created_at, now()), COALESCE(@created_at, now()))
			ON CONFLICT (uid) DO NOTHING
			RETURNING ` + userColumns + `
		)
		SELECT ` + userColumns + `, true FROM ins
		UNION ALL
		SELECT ` + userColumns + `, false FROM users
		WHERE uid = @uid AND NOT EXISTS (SELECT 1 FROM ins)`

	args := pgx.NamedArgs{
		"uid":          p.UID,
		"email":        p.Email,
		"display_name": p.DisplayName,
		"photo_url":    p.PhotoURL,
		"created_at":   nilIfZeroTime(p.CreatedAt),
	}

	var (
		out     domain.Profile
		created bool
	)
	err := r.db.QueryRow(ctx, q, args).Scan(&out.UID, &out.Email, &out.DisplayName, &out.PhotoURL,
		&out.CreatedAt, &out.UpdatedAt, &created)
	if err != nil {
		return domain.Profile{}, false, storeErr("repo.UserStore.Ensure", err)
	}
	return out, created, nil
}

func (r *pgUserStore) Get(ctx context.Context, uid string) (domain.Profile, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE uid = @uid`

	p, err := scanProfile(r.db.QueryRow(ctx, q, pgx.NamedArgs{"uid": uid}))
	if err != nil {
		return domain.Profile{}, storeErr("repo.UserStore.Get", err)
	}
	return p, nil
}

// Update uses COALESCE so a nil patch field (bound as NULL) keeps the column.
func (r *pgUserStore) Update(ctx context.Context, uid string, patch domain.ProfilePatch) (domain.Profile, error) {
	q := `
		UPDATE users
		SET display_name = COALESCE(@display_name, display_name),
		    photo_url    = COALESCE(@photo_url, photo_url),
		    updated_at   = now()
		WHERE uid = @uid
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"uid":          uid,
		"display_name": patch.DisplayName,
		"photo_url":    patch.PhotoURL,
	}

	p, err := scanProfile(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Profile{}, storeErr("repo.UserStore.Update", err)
	}
	return p, nil
}

func scanProfile(s scanner) (domain.Profile, error) {
	var p domain.Profile
	err := s.Scan(&p.UID, &p.Email, &p.DisplayName, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}
