// Package builder implements the in-memory itinerary editor: an ordered list
// of stop sections, each holding an ordered list of line items.
//
// Every operation is total. Unknown section or item ids are ignored, and
// numeric input that fails to parse becomes 0. Totals are computed from the
// lists on every call and never stored.
package builder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// Defaults applied to new sections and items.
const (
	DefaultCity      = "New Destination"
	DefaultDateRange = "Select Dates"
	DefaultCategory  = domain.CategoryActivity
)

// SectionField names an editable field of a section.
type SectionField string

const (
	SectionCity        SectionField = "city"
	SectionDateRange   SectionField = "date_range"
	SectionBudget      SectionField = "budget"
	SectionDescription SectionField = "description"
)

// ItemField names an editable field of a line item.
type ItemField string

const (
	ItemTitle       ItemField = "title"
	ItemDescription ItemField = "description"
	ItemCost        ItemField = "cost"
	ItemCategory    ItemField = "category"
	ItemStartTime   ItemField = "start_time"
	ItemDuration    ItemField = "duration"
)

// ParseSectionField converts a wire name into a SectionField.
func ParseSectionField(name string) (SectionField, error) {
	switch f := SectionField(name); f {
	case SectionCity, SectionDateRange, SectionBudget, SectionDescription:
		return f, nil
	}
	return "", domain.NewValidationError(name, "unknown section field")
}

// ParseItemField converts a wire name into an ItemField.
func ParseItemField(name string) (ItemField, error) {
	switch f := ItemField(name); f {
	case ItemTitle, ItemDescription, ItemCost, ItemCategory, ItemStartTime, ItemDuration:
		return f, nil
	}
	return "", domain.NewValidationError(name, "unknown item field")
}

// Section wraps a stored stop with display-only state.
type Section struct {
	Stop     domain.Stop
	Expanded bool
}

// StopsUpdater is the slice of the trip store Commit writes to.
type StopsUpdater interface {
	Update(ctx context.Context, id string, patch domain.TripPatch) error
}

// Builder is safe for concurrent use.
type Builder struct {
	newID func() string

	mu       sync.Mutex
	sections []Section
}

// Option configures a Builder.
type Option func(*Builder)

// WithIDGenerator overrides how section and item ids are generated.
// The generator must never return the same id twice.
func WithIDGenerator(gen func() string) Option {
	return func(b *Builder) { b.newID = gen }
}

// New returns an empty builder.
func New(opts ...Option) *Builder {
	b := &Builder{newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromStops seeds a builder with stored stops, all expanded.
// Stops or activities without an id are given one.
func FromStops(stops []domain.Stop, opts ...Option) *Builder {
	b := New(opts...)
	for _, s := range domain.CloneStops(stops) {
		if s.ID == "" {
			s.ID = b.newID()
		}
		for i := range s.Activities {
			if s.Activities[i].ID == "" {
				s.Activities[i].ID = b.newID()
			}
		}
		b.sections = append(b.sections, Section{Stop: s, Expanded: true})
	}
	return b
}

// AddSection appends an expanded placeholder section and returns its id.
func (b *Builder) AddSection() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.newID()
	b.sections = append(b.sections, Section{
		Stop: domain.Stop{
			ID:         id,
			City:       DefaultCity,
			DateRange:  DefaultDateRange,
			Budget:     0,
			Activities: []domain.Activity{},
		},
		Expanded: true,
	})
	return id
}

// RemoveSection drops the section and its items.
func (b *Builder) RemoveSection(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexOf(id); i >= 0 {
		b.sections = append(b.sections[:i], b.sections[i+1:]...)
	}
}

// ToggleExpanded flips the section's expanded flag.
func (b *Builder) ToggleExpanded(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexOf(id); i >= 0 {
		b.sections[i].Expanded = !b.sections[i].Expanded
	}
}

// UpdateSectionField replaces one field of the section. Budgets are not
// validated: zero and negative values are kept as given.
func (b *Builder) UpdateSectionField(id string, f SectionField, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(id)
	if i < 0 {
		return
	}
	s := &b.sections[i].Stop
	switch f {
	case SectionCity:
		s.City = value
	case SectionDateRange:
		s.DateRange = value
	case SectionBudget:
		s.Budget = parseMoney(value)
	case SectionDescription:
		s.Description = value
	}
}

// AddItem appends an empty item to the section and returns its id.
// It returns "" when the section does not exist.
func (b *Builder) AddItem(sectionID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(sectionID)
	if i < 0 {
		return ""
	}
	id := b.newID()
	s := &b.sections[i].Stop
	s.Activities = append(s.Activities, domain.Activity{
		ID:       id,
		Category: DefaultCategory,
	})
	return id
}

// UpdateItem replaces one field of one item.
func (b *Builder) UpdateItem(sectionID, itemID string, f ItemField, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := b.item(sectionID, itemID)
	if a == nil {
		return
	}
	switch f {
	case ItemTitle:
		a.Title = value
	case ItemDescription:
		a.Description = value
	case ItemCost:
		a.Cost = parseMoney(value)
	case ItemCategory:
		a.Category = domain.ParseCategory(value)
	case ItemStartTime:
		a.StartTime = value
	case ItemDuration:
		a.Duration = value
	}
}

// RemoveItem drops the item from the section.
func (b *Builder) RemoveItem(sectionID, itemID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(sectionID)
	if i < 0 {
		return
	}
	s := &b.sections[i].Stop
	for j, a := range s.Activities {
		if a.ID == itemID {
			s.Activities = append(s.Activities[:j], s.Activities[j+1:]...)
			return
		}
	}
}

// Sections returns a deep copy of the sections in order.
func (b *Builder) Sections() []Section {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Section, len(b.sections))
	for i, s := range b.sections {
		out[i] = Section{Stop: domain.CloneStops([]domain.Stop{s.Stop})[0], Expanded: s.Expanded}
	}
	return out
}

// Stops returns the persisted shape of the itinerary, without view state.
func (b *Builder) Stops() []domain.Stop {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopsLocked()
}

// TotalBudget sums the budgets of every section.
func (b *Builder) TotalBudget() domain.Money {
	b.mu.Lock()
	defer b.mu.Unlock()

	var total domain.Money
	for _, s := range b.sections {
		total += s.Stop.Budget
	}
	return total
}

// SectionCost sums the item costs of one section; unknown ids cost 0.
func (b *Builder) SectionCost(id string) domain.Money {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexOf(id); i >= 0 {
		return b.sections[i].Stop.Cost()
	}
	return 0
}

// TotalCost sums the item costs of every section.
func (b *Builder) TotalCost() domain.Money {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalCostLocked()
}

// CostByCategory sums item costs per category across the itinerary.
// Categories with no items are omitted.
func (b *Builder) CostByCategory() map[domain.Category]domain.Money {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[domain.Category]domain.Money)
	for _, s := range b.sections {
		for _, a := range s.Stop.Activities {
			out[a.Category] += a.Cost
		}
	}
	return out
}

// Commit writes the whole ordered itinerary to the trip in a single update.
// The trip's spent amount is set to the itinerary's total item cost.
func (b *Builder) Commit(ctx context.Context, store StopsUpdater, tripID string) error {
	b.mu.Lock()
	stops := b.stopsLocked()
	spent := b.totalCostLocked()
	b.mu.Unlock()

	if err := store.Update(ctx, tripID, domain.TripPatch{Stops: &stops, Spent: &spent}); err != nil {
		return fmt.Errorf("builder.Builder.Commit: %w", err)
	}
	return nil
}

func (b *Builder) stopsLocked() []domain.Stop {
	stops := make([]domain.Stop, len(b.sections))
	for i, s := range b.sections {
		stops[i] = s.Stop
	}
	return domain.CloneStops(stops)
}

func (b *Builder) totalCostLocked() domain.Money {
	var total domain.Money
	for _, s := range b.sections {
		total += s.Stop.Cost()
	}
	return total
}

func (b *Builder) indexOf(id string) int {
	for i, s := range b.sections {
		if s.Stop.ID == id {
			return i
		}
	}
	return -1
}

func (b *Builder) item(sectionID, itemID string) *domain.Activity {
	i := b.indexOf(sectionID)
	if i < 0 {
		return nil
	}
	acts := b.sections[i].Stop.Activities
	for j := range acts {
		if acts[j].ID == itemID {
			return &acts[j]
		}
	}
	return nil
}

// parseMoney parses an integer amount, falling back to 0.
func parseMoney(s string) domain.Money {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
