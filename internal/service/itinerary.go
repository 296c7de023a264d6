package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/globe-trotter/internal/builder"
	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/repo"
	"github.com/pkordes/globe-trotter/internal/session"
)

var (
	sectionFieldOrder = []builder.SectionField{
		builder.SectionCity,
		builder.SectionDateRange,
		builder.SectionBudget,
		builder.SectionDescription,
	}
	itemFieldOrder = []builder.ItemField{
		builder.ItemTitle,
		builder.ItemDescription,
		builder.ItemCost,
		builder.ItemCategory,
		builder.ItemStartTime,
		builder.ItemDuration,
	}
)

// Itinerary is a snapshot of an editing session with its computed totals.
type Itinerary struct {
	SessionID      string
	TripID         string
	Sections       []builder.Section
	TotalBudget    domain.Money
	TotalCost      domain.Money
	CostByCategory map[domain.Category]domain.Money
}

type itinerarySession struct {
	tripID  string
	builder *builder.Builder
}

func (s *itinerarySession) snapshot(id string) Itinerary {
	return Itinerary{
		SessionID:      id,
		TripID:         s.tripID,
		Sections:       s.builder.Sections(),
		TotalBudget:    s.builder.TotalBudget(),
		TotalCost:      s.builder.TotalCost(),
		CostByCategory: s.builder.CostByCategory(),
	}
}

func (s *itinerarySession) hasSection(id string) bool {
	for _, sec := range s.builder.Sections() {
		if sec.Stop.ID == id {
			return true
		}
	}
	return false
}

func (s *itinerarySession) hasItem(sectionID, itemID string) bool {
	for _, sec := range s.builder.Sections() {
		if sec.Stop.ID != sectionID {
			continue
		}
		for _, a := range sec.Stop.Activities {
			if a.ID == itemID {
				return true
			}
		}
	}
	return false
}

// ItineraryService edits a trip's stops in a server-side builder session and
// writes the result back on Commit. Nothing reaches the store before Commit.
//
// The builder itself ignores unknown section and item ids; this service
// reports them as domain.ErrNotFound so API clients learn about stale ids.
type ItineraryService struct {
	store    repo.TripStore
	sessions *session.Registry[*itinerarySession]
	opts     []builder.Option
}

// NewItineraryService constructs an ItineraryService. Sessions idle for
// longer than ttl are discarded; opts apply to every builder it opens.
func NewItineraryService(store repo.TripStore, ttl time.Duration, opts ...builder.Option) *ItineraryService {
	return &ItineraryService{
		store:    store,
		sessions: session.NewRegistry[*itinerarySession](ttl),
		opts:     opts,
	}
}

// Open starts an editing session seeded with the trip's current stops.
// Only collaborators may edit a trip.
func (s *ItineraryService) Open(ctx context.Context, user *domain.User, tripID string) (Itinerary, error) {
	if err := requireUser(user); err != nil {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.Open: %w", err)
	}

	trip, err := s.store.GetByID(ctx, tripID)
	if err != nil {
		logStoreFailure(ctx, "get trip", err, "trip_id", tripID)
		return Itinerary{}, fmt.Errorf("service.ItineraryService.Open: %w", err)
	}
	if !trip.HasCollaborator(user.UID) {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.Open: %w", domain.ErrNotFound)
	}

	sess := &itinerarySession{tripID: trip.ID, builder: builder.FromStops(trip.Stops, s.opts...)}
	id := s.sessions.Put(user.UID, sess)
	return sess.snapshot(id), nil
}

// Get returns the session's current state.
func (s *ItineraryService) Get(ctx context.Context, user *domain.User, sessionID string) (Itinerary, error) {
	sess, err := s.lookup(user, sessionID)
	if err != nil {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.Get: %w", err)
	}
	return sess.snapshot(sessionID), nil
}

// AddSection appends a placeholder section and returns its id.
func (s *ItineraryService) AddSection(ctx context.Context, user *domain.User, sessionID string) (string, Itinerary, error) {
	sess, err := s.lookup(user, sessionID)
	if err != nil {
		return "", Itinerary{}, fmt.Errorf("service.ItineraryService.AddSection: %w", err)
	}
	id := sess.builder.AddSection()
	return id, sess.snapshot(sessionID), nil
}

// UpdateSection assigns a batch of section fields by wire name.
func (s *ItineraryService) UpdateSection(ctx context.Context, user *domain.User, sessionID, sectionID string, values map[string]string) (Itinerary, error) {
	sess, err := s.lookupSection(user, sessionID, sectionID)
	if err != nil {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.UpdateSection: %w", err)
	}

	parsed := make(map[builder.SectionField]string, len(values))
	for name, v := range values {
		f, err := builder.ParseSectionField(name)
		if err != nil {
			return Itinerary{}, fmt.Errorf("service.ItineraryService.UpdateSection: %w", err)
		}
		parsed[f] = v
	}
	for _, f := range sectionFieldOrder {
		if v, ok := parsed[f]; ok {
			sess.builder.UpdateSectionField(sectionID, f, v)
		}
	}
	return sess.snapshot(sessionID), nil
}

// RemoveSection drops a section and its items.
func (s *ItineraryService) RemoveSection(ctx context.Context, user *domain.User, sessionID, sectionID string) (Itinerary, error) {
	sess, err := s.lookupSection(user, sessionID, sectionID)
	if err != nil {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.RemoveSection: %w", err)
	}
	sess.builder.RemoveSection(sectionID)
	return sess.snapshot(sessionID), nil
}

// ToggleSection flips whether a section is shown expanded.
func (s *ItineraryService) ToggleSection(ctx context.Context, user *domain.User, sessionID, sectionID string) (Itinerary, error) {
	sess, err := s.lookupSection(user, sessionID, sectionID)
	if err != nil {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.ToggleSection: %w", err)
	}
	sess.builder.ToggleExpanded(sectionID)
	return sess.snapshot(sessionID), nil
}

// AddItem appends an empty item to a section and returns its id.
func (s *ItineraryService) AddItem(ctx context.Context, user *domain.User, sessionID, sectionID string) (string, Itinerary, error) {
	sess, err := s.lookupSection(user, sessionID, sectionID)
	if err != nil {
		return "", Itinerary{}, fmt.Errorf("service.ItineraryService.AddItem: %w", err)
	}
	id := sess.builder.AddItem(sectionID)
	if id == "" {
		// The section was removed concurrently.
		return "", Itinerary{}, fmt.Errorf("service.ItineraryService.AddItem: %w", domain.ErrNotFound)
	}
	return id, sess.snapshot(sessionID), nil
}

// UpdateItem assigns a batch of item fields by wire name.
func (s *ItineraryService) UpdateItem(ctx context.Context, user *domain.User, sessionID, sectionID, itemID string, values map[string]string) (Itinerary, error) {
	sess, err := s.lookupItem(user, sessionID, sectionID, itemID)
	if err != nil {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.UpdateItem: %w", err)
	}

	parsed := make(map[builder.ItemField]string, len(values))
	for name, v := range values {
		f, err := builder.ParseItemField(name)
		if err != nil {
			return Itinerary{}, fmt.Errorf("service.ItineraryService.UpdateItem: %w", err)
		}
		parsed[f] = v
	}
	for _, f := range itemFieldOrder {
		if v, ok := parsed[f]; ok {
			sess.builder.UpdateItem(sectionID, itemID, f, v)
		}
	}
	return sess.snapshot(sessionID), nil
}

// RemoveItem drops one item.
func (s *ItineraryService) RemoveItem(ctx context.Context, user *domain.User, sessionID, sectionID, itemID string) (Itinerary, error) {
	sess, err := s.lookupItem(user, sessionID, sectionID, itemID)
	if err != nil {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.RemoveItem: %w", err)
	}
	sess.builder.RemoveItem(sectionID, itemID)
	return sess.snapshot(sessionID), nil
}

// Commit writes the ordered itinerary back to the trip in a single update.
// The session stays open, so a failed commit can be retried as is.
func (s *ItineraryService) Commit(ctx context.Context, user *domain.User, sessionID string) (Itinerary, error) {
	sess, err := s.lookup(user, sessionID)
	if err != nil {
		return Itinerary{}, fmt.Errorf("service.ItineraryService.Commit: %w", err)
	}
	if err := sess.builder.Commit(ctx, s.store, sess.tripID); err != nil {
		logStoreFailure(ctx, "commit itinerary", err, "trip_id", sess.tripID)
		return Itinerary{}, fmt.Errorf("service.ItineraryService.Commit: %w", err)
	}
	return sess.snapshot(sessionID), nil
}

// Close discards the session without writing anything.
func (s *ItineraryService) Close(ctx context.Context, user *domain.User, sessionID string) error {
	if err := requireUser(user); err != nil {
		return fmt.Errorf("service.ItineraryService.Close: %w", err)
	}
	if err := s.sessions.Delete(user.UID, sessionID); err != nil {
		return fmt.Errorf("service.ItineraryService.Close: %w", err)
	}
	return nil
}

func (s *ItineraryService) lookup(user *domain.User, sessionID string) (*itinerarySession, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	return s.sessions.Get(user.UID, sessionID)
}

func (s *ItineraryService) lookupSection(user *domain.User, sessionID, sectionID string) (*itinerarySession, error) {
	sess, err := s.lookup(user, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.hasSection(sectionID) {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

func (s *ItineraryService) lookupItem(user *domain.User, sessionID, sectionID, itemID string) (*itinerarySession, error) {
	sess, err := s.lookup(user, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.hasItem(sectionID, itemID) {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}
