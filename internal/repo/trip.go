// Package repo contains all trip persistence for the Globe Trotter planner.
// TripStore is the single storage contract; this file holds the Postgres
// implementation, with MongoDB and BoltDB adapters alongside.
// No business logic lives here, only queries and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripStore defines the persistence operations for Trips.
// Stops and their activities are embedded in the trip document, so there is
// no separate stop store.
//
// Every failure other than domain.ErrNotFound wraps domain.ErrStoreUnavailable.
type TripStore interface {
	// Create inserts a new trip and returns its store-generated id.
	// A zero CreatedAt is replaced with the current time.
	Create(ctx context.Context, trip domain.Trip) (string, error)

	// GetByID retrieves a single trip.
	// Returns domain.ErrNotFound if no trip with that id exists.
	GetByID(ctx context.Context, id string) (domain.Trip, error)

	// ListByUser returns every trip that lists userID as a collaborator,
	// newest first by CreatedAt.
	ListByUser(ctx context.Context, userID string) ([]domain.Trip, error)

	// Update merges the non-nil fields of patch into the trip.
	// Returns domain.ErrNotFound if no trip with that id exists.
	Update(ctx context.Context, id string, patch domain.TripPatch) error

	// AddStop appends stop to the end of the trip's stops atomically.
	// Returns domain.ErrNotFound if no trip with that id exists.
	AddStop(ctx context.Context, id string, stop domain.Stop) error
}

// pgTripStore is the Postgres implementation of TripStore.
// Stops are kept in a jsonb column and collaborators in a text[] column.
type pgTripStore struct {
	db db
}

// NewPGTripStore constructs a TripStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPGTripStore(db db) TripStore {
	return &pgTripStore{db: db}
}

const tripColumns = `id, owner_id, title, description, destination, start_date, end_date,
		budget, spent, cover_image, is_public, stops, collaborators, created_at, updated_at`

// Create inserts a new trip row and returns its id.
func (r *pgTripStore) Create(ctx context.Context, trip domain.Trip) (string, error) {
	const q = `
		INSERT INTO trips (owner_id, title, description, destination, start_date, end_date,
		                   budget, spent, cover_image, is_public, stops, collaborators, created_at)
		VALUES (@owner_id, @title, @description, @destination, @start_date, @end_date,
		        @budget, @spent, @cover_image, @is_public, @stops::jsonb, @collaborators,
		        COALESCE(@created_at, now()))
		RETURNING id`

	stops, err := encodeStops(trip.Stops)
	if err != nil {
		return "", fmt.Errorf("repo.TripStore.Create: %w", err)
	}
	collaborators := trip.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}

	args := pgx.NamedArgs{
		"owner_id":      trip.OwnerID,
		"title":         trip.Title,
		"description":   trip.Description,
		"destination":   trip.Destination,
		"start_date":    trip.StartDate,
		"end_date":      trip.EndDate,
		"budget":        trip.Budget,
		"spent":         trip.Spent,
		"cover_image":   trip.CoverImage,
		"is_public":     trip.IsPublic,
		"stops":         stops,
		"collaborators": collaborators,
		"created_at":    nilIfZeroTime(trip.CreatedAt), // nil becomes NULL
	}

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, args).Scan(&id); err != nil {
		return "", storeErr("repo.TripStore.Create", err)
	}
	return uuid.UUID(id.Bytes).String(), nil
}

// GetByID retrieves a trip by primary key.
// Ids that are not UUIDs cannot exist, so they report domain.ErrNotFound.
func (r *pgTripStore) GetByID(ctx context.Context, id string) (domain.Trip, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripStore.GetByID: %w", domain.ErrNotFound)
	}

	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": uid}))
	if err != nil {
		return domain.Trip{}, storeErr("repo.TripStore.GetByID", err)
	}
	return result, nil
}

// ListByUser returns the user's trips, most recently created first.
func (r *pgTripStore) ListByUser(ctx context.Context, userID string) ([]domain.Trip, error) {
	q := `SELECT ` + tripColumns + `
		FROM trips
		WHERE collaborators @> ARRAY[@user_id::text]
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, storeErr("repo.TripStore.ListByUser", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, storeErr("repo.TripStore.ListByUser: scan", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("repo.TripStore.ListByUser: rows", err)
	}
	return trips, nil
}

// Update merges the patch into the row. NULL parameters leave the column as is.
func (r *pgTripStore) Update(ctx context.Context, id string, patch domain.TripPatch) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("repo.TripStore.Update: %w", domain.ErrNotFound)
	}

	const q = `
		UPDATE trips
		SET title       = COALESCE(@title, title),
		    description = COALESCE(@description, description),
		    destination = COALESCE(@destination, destination),
		    start_date  = COALESCE(@start_date, start_date),
		    end_date    = COALESCE(@end_date, end_date),
		    budget      = COALESCE(@budget, budget),
		    spent       = COALESCE(@spent, spent),
		    cover_image = COALESCE(@cover_image, cover_image),
		    is_public   = COALESCE(@is_public, is_public),
		    stops       = COALESCE(@stops::jsonb, stops),
		    updated_at  = now()
		WHERE id = @id`

	var stops *string
	if patch.Stops != nil {
		s, err := encodeStops(*patch.Stops)
		if err != nil {
			return fmt.Errorf("repo.TripStore.Update: %w", err)
		}
		stops = &s
	}

	args := pgx.NamedArgs{
		"id":          uid,
		"title":       patch.Title,
		"description": patch.Description,
		"destination": patch.Destination,
		"start_date":  patch.StartDate,
		"end_date":    patch.EndDate,
		"budget":      patch.Budget,
		"spent":       patch.Spent,
		"cover_image": patch.CoverImage,
		"is_public":   patch.IsPublic,
		"stops":       stops,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return storeErr("repo.TripStore.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripStore.Update: %w", domain.ErrNotFound)
	}
	return nil
}

// AddStop appends to the jsonb array in a single statement, so concurrent
// appends cannot overwrite each other.
func (r *pgTripStore) AddStop(ctx context.Context, id string, stop domain.Stop) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("repo.TripStore.AddStop: %w", domain.ErrNotFound)
	}

	const q = `
		UPDATE trips
		SET stops      = stops || jsonb_build_array(@stop::jsonb),
		    updated_at = now()
		WHERE id = @id`

	if stop.Activities == nil {
		stop.Activities = []domain.Activity{}
	}
	raw, err := json.Marshal(stop)
	if err != nil {
		return fmt.Errorf("repo.TripStore.AddStop: encode stop: %w", err)
	}

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": uid, "stop": string(raw)})
	if err != nil {
		return storeErr("repo.TripStore.AddStop", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripStore.AddStop: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID, date, and jsonb conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		startDate pgtype.Date
		endDate   pgtype.Date
		stops     []byte
	)

	err := s.Scan(&id, &t.OwnerID, &t.Title, &t.Description, &t.Destination, &startDate, &endDate,
		&t.Budget, &t.Spent, &t.CoverImage, &t.IsPublic, &stops, &t.Collaborators, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes).String()
	t.StartDate = startDate.Time
	t.EndDate = endDate.Time
	if err := json.Unmarshal(stops, &t.Stops); err != nil {
		return domain.Trip{}, fmt.Errorf("decode stops: %w", err)
	}
	if t.Stops == nil {
		t.Stops = []domain.Stop{}
	}
	return t, nil
}

// encodeStops renders stops as a JSON array, never null.
func encodeStops(stops []domain.Stop) (string, error) {
	if stops == nil {
		stops = []domain.Stop{}
	}
	raw, err := json.Marshal(stops)
	if err != nil {
		return "", fmt.Errorf("encode stops: %w", err)
	}
	return string(raw), nil
}

// storeErr wraps err with op. domain.ErrNotFound passes through; everything
// else is reported as domain.ErrStoreUnavailable.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

func nilIfZeroTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
