// Package service contains the business logic for the Globe Trotter API.
// Services check identity and permissions, enforce business rules, and
// orchestrate store calls. No queries live here; services depend on the
// repo.TripStore interface, not an implementation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/repo"
	"github.com/pkordes/globe-trotter/internal/wizard"
)

// TripInput is a complete trip form submitted in one request.
type TripInput struct {
	Title       string
	Destination string
	StartDate   string
	EndDate     string
	Budget      domain.Money
	CoverImage  string
}

// TripService implements business logic for Trip operations.
type TripService struct {
	store repo.TripStore
	now   func() time.Time
	newID func() string
}

// NewTripService constructs a TripService backed by the provided TripStore.
func NewTripService(store repo.TripStore) *TripService {
	return &TripService{store: store, now: time.Now, newID: uuid.NewString}
}

// Create runs the full wizard in one call and returns the stored trip.
// Validation rules and defaults are exactly those of the step-by-step flow.
//
// Once the store has accepted the trip, Create does not fail: if reading it
// back fails, the trip as submitted is returned with its new id.
func (s *TripService) Create(ctx context.Context, user *domain.User, in TripInput) (domain.Trip, error) {
	rec := &recordingCreator{store: s.store}
	w := wizard.New(rec, wizard.WithClock(s.now))
	w.SetField(wizard.FieldTitle, in.Title)
	w.SetField(wizard.FieldDestination, in.Destination)
	w.SetField(wizard.FieldStartDate, in.StartDate)
	w.SetField(wizard.FieldEndDate, in.EndDate)
	w.SetBudget(in.Budget)
	if in.CoverImage != "" {
		w.SetField(wizard.FieldCoverImage, in.CoverImage)
	}

	id, err := w.Submit(ctx, user)
	if err != nil {
		logStoreFailure(ctx, "create trip", err)
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	trip, err := s.store.GetByID(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "read back created trip", "error", err, "trip_id", id)
		trip = rec.submitted
		trip.ID = id
		trip.UpdatedAt = trip.CreatedAt
	}
	return trip, nil
}

// recordingCreator keeps the trip handed to the store so it can stand in for
// the stored copy.
type recordingCreator struct {
	store     wizard.TripCreator
	submitted domain.Trip
}

func (c *recordingCreator) Create(ctx context.Context, trip domain.Trip) (string, error) {
	c.submitted = trip
	return c.store.Create(ctx, trip)
}

// GetByID returns a trip the user may read. Private trips of other users are
// reported as not found.
func (s *TripService) GetByID(ctx context.Context, user *domain.User, id string) (domain.Trip, error) {
	if err := requireUser(user); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}

	trip, err := s.store.GetByID(ctx, id)
	if err != nil {
		logStoreFailure(ctx, "get trip", err, "trip_id", id)
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	if !trip.VisibleTo(user.UID) {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", domain.ErrNotFound)
	}
	return trip, nil
}

// ListForUser returns one page of the user's trips, newest first, and the
// total number of trips that matched before paging. A nil phase matches all.
func (s *TripService) ListForUser(ctx context.Context, user *domain.User, phase *domain.Phase, params domain.PaginationParams) ([]domain.Trip, int, error) {
	if err := requireUser(user); err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListForUser: %w", err)
	}

	all, err := s.store.ListByUser(ctx, user.UID)
	if err != nil {
		logStoreFailure(ctx, "list trips", err)
		return nil, 0, fmt.Errorf("service.TripService.ListForUser: %w", err)
	}

	matched := all
	if phase != nil {
		now := s.now()
		matched = make([]domain.Trip, 0, len(all))
		for _, t := range all {
			if t.Phase(now) == *phase {
				matched = append(matched, t)
			}
		}
	}

	start, end := params.Window(len(matched))
	return matched[start:end], len(matched), nil
}

// AddStop appends a stop to a trip the user collaborates on and returns the
// stop as stored.
func (s *TripService) AddStop(ctx context.Context, user *domain.User, tripID string, stop domain.Stop) (domain.Stop, error) {
	if err := requireUser(user); err != nil {
		return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w", err)
	}

	stop.City = strings.TrimSpace(stop.City)
	if stop.City == "" {
		return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w", domain.NewValidationError("city", "city is required"))
	}
	if stop.Budget < 0 {
		return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w", domain.NewValidationError("budget", "budget must not be negative"))
	}

	trip, err := s.store.GetByID(ctx, tripID)
	if err != nil {
		logStoreFailure(ctx, "get trip", err, "trip_id", tripID)
		return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w", err)
	}
	if !trip.HasCollaborator(user.UID) {
		return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w", domain.ErrNotFound)
	}

	stop = s.normalizeStop(stop)
	if err := s.store.AddStop(ctx, tripID, stop); err != nil {
		logStoreFailure(ctx, "add stop", err, "trip_id", tripID)
		return domain.Stop{}, fmt.Errorf("service.TripService.AddStop: %w", err)
	}
	return stop, nil
}

// CloneBudget is the budget given to a cloned trip.
const CloneBudget domain.Money = 5000

// Clone copies a trip the user can read into a new private trip of their
// own. The copy starts today, lasts as many days as the source, is titled
// "<title> (Clone)" and gets CloneBudget; stops are not copied.
func (s *TripService) Clone(ctx context.Context, user *domain.User, tripID string) (domain.Trip, error) {
	src, err := s.GetByID(ctx, user, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Clone: %w", err)
	}

	start := s.now().UTC()
	days := int(src.EndDate.Sub(src.StartDate).Hours() / 24)
	end := start.AddDate(0, 0, days)

	trip, err := s.Create(ctx, user, TripInput{
		Title:       src.Title + " (Clone)",
		Destination: src.Destination,
		StartDate:   start.Format(wizard.DateLayout),
		EndDate:     end.Format(wizard.DateLayout),
		Budget:      CloneBudget,
		CoverImage:  src.CoverImage,
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Clone: %w", err)
	}
	return trip, nil
}

// Export returns the trip flattened to one row per activity.
func (s *TripService) Export(ctx context.Context, user *domain.User, tripID string) ([]domain.ExportRow, error) {
	trip, err := s.GetByID(ctx, user, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Export: %w", err)
	}
	return domain.ExportTrip(trip), nil
}

// normalizeStop fills missing ids and canonicalizes activity categories.
func (s *TripService) normalizeStop(stop domain.Stop) domain.Stop {
	stop = domain.CloneStops([]domain.Stop{stop})[0]
	if stop.ID == "" {
		stop.ID = s.newID()
	}
	for i := range stop.Activities {
		a := &stop.Activities[i]
		if a.ID == "" {
			a.ID = s.newID()
		}
		a.Category = domain.ParseCategory(string(a.Category))
	}
	return stop
}

func requireUser(user *domain.User) error {
	if user == nil || user.UID == "" {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// logStoreFailure records errors that reached the store. Validation,
// permission, and not-found outcomes are normal traffic and are not logged.
func logStoreFailure(ctx context.Context, op string, err error, attrs ...any) {
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		return
	}
	slog.WarnContext(ctx, "store operation failed", append([]any{"op", op, "error", err}, attrs...)...)
}
