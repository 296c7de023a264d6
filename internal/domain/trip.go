// Package domain contains the core data types for the Globe Trotter planner.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler, wizard, builder).
package domain

import "time"

// Money is an amount in whole currency units.
type Money = int64

// Phase groups trips the way the trips overview does: by where today falls
// relative to the trip's date range.
type Phase string

const (
	PhaseOngoing   Phase = "ongoing"
	PhaseUpcoming  Phase = "upcoming"
	PhaseCompleted Phase = "completed"
)

// ParsePhase converts a query value into a Phase.
func ParsePhase(s string) (Phase, bool) {
	switch p := Phase(s); p {
	case PhaseOngoing, PhaseUpcoming, PhaseCompleted:
		return p, true
	}
	return "", false
}

// Trip is a persisted travel plan owned by a user.
// It is the top-level aggregate; stops and their activities are embedded.
type Trip struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Destination   string    `json:"destination"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Budget        Money     `json:"budget"`
	Spent         Money     `json:"spent"`
	CoverImage    string    `json:"cover_image,omitempty"`
	IsPublic      bool      `json:"is_public"`
	Stops         []Stop    `json:"stops"`
	Collaborators []string  `json:"collaborators"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasCollaborator reports whether uid may edit the trip.
func (t Trip) HasCollaborator(uid string) bool {
	for _, c := range t.Collaborators {
		if c == uid {
			return true
		}
	}
	return false
}

// VisibleTo reports whether uid may read the trip.
func (t Trip) VisibleTo(uid string) bool {
	return t.IsPublic || t.HasCollaborator(uid)
}

// Phase classifies the trip relative to now. Dates are compared by calendar
// day, so a trip ending today is still ongoing.
func (t Trip) Phase(now time.Time) Phase {
	today := truncateDay(now)
	switch {
	case truncateDay(t.StartDate).After(today):
		return PhaseUpcoming
	case truncateDay(t.EndDate).Before(today):
		return PhaseCompleted
	default:
		return PhaseOngoing
	}
}

// Utilization returns Spent as a whole percentage of Budget.
// A zero budget yields 0.
func (t Trip) Utilization() int {
	if t.Budget <= 0 {
		return 0
	}
	return int(t.Spent * 100 / t.Budget)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TripPatch describes a merge update: nil fields are left untouched.
type TripPatch struct {
	Title       *string
	Description *string
	Destination *string
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *Money
	Spent       *Money
	CoverImage  *string
	IsPublic    *bool
	Stops       *[]Stop
}

// Apply returns a copy of t with every non-nil patch field applied.
// Stores that cannot express a merge natively use it for read-modify-write.
func (p TripPatch) Apply(t Trip) Trip {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Destination != nil {
		t.Destination = *p.Destination
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Budget != nil {
		t.Budget = *p.Budget
	}
	if p.Spent != nil {
		t.Spent = *p.Spent
	}
	if p.CoverImage != nil {
		t.CoverImage = *p.CoverImage
	}
	if p.IsPublic != nil {
		t.IsPublic = *p.IsPublic
	}
	if p.Stops != nil {
		t.Stops = CloneStops(*p.Stops)
	}
	return t
}
