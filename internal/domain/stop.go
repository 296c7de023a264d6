package domain

import "strings"

// Stop is a single destination leg of a trip, with its own sub-budget and an
// ordered list of activities. Order within Trip.Stops is travel order.
// StartDate and EndDate are optional "2006-01-02" strings; DateRange is the
// free-text label shown while planning.
type Stop struct {
	ID          string     `json:"id"`
	City        string     `json:"city"`
	Description string     `json:"description,omitempty"`
	DateRange   string     `json:"date_range,omitempty"`
	StartDate   string     `json:"start_date,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
	Budget      Money      `json:"budget"`
	Image       string     `json:"image,omitempty"`
	Activities  []Activity `json:"activities"`
}

// Cost sums the cost of every activity at the stop.
func (s Stop) Cost() Money {
	var total Money
	for _, a := range s.Activities {
		total += a.Cost
	}
	return total
}

// Activity is a single costed unit within a stop.
type Activity struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Cost        Money    `json:"cost"`
	StartTime   string   `json:"start_time,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Category    Category `json:"category"`
}

// Category is the closed set of activity kinds stored with a trip.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryStay      Category = "stay"
	CategoryActivity  Category = "activity"
	CategoryMeal      Category = "meal"
	// CategoryOther marks free text that maps to none of the known kinds.
	CategoryOther Category = "other"
)

// Categories lists the known categories in display order.
var Categories = []Category{CategoryTransport, CategoryStay, CategoryActivity, CategoryMeal, CategoryOther}

// categoryAliases maps lowercase UI labels onto the stored enum.
var categoryAliases = map[string]Category{
	"transport":      CategoryTransport,
	"transportation": CategoryTransport,
	"flight":         CategoryTransport,
	"flights":        CategoryTransport,
	"train":          CategoryTransport,
	"bus":            CategoryTransport,
	"car":            CategoryTransport,
	"stay":           CategoryStay,
	"hotel":          CategoryStay,
	"hotels":         CategoryStay,
	"lodging":        CategoryStay,
	"accommodation":  CategoryStay,
	"activity":       CategoryActivity,
	"activities":     CategoryActivity,
	"tour":           CategoryActivity,
	"sightseeing":    CategoryActivity,
	"meal":           CategoryMeal,
	"meals":          CategoryMeal,
	"food":           CategoryMeal,
	"dining":         CategoryMeal,
	"restaurant":     CategoryMeal,
}

// ParseCategory maps free-text category input onto the stored enum.
// Matching is case-insensitive; unknown text yields CategoryOther.
func ParseCategory(s string) Category {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return CategoryOther
}

// CloneStops deep-copies stops so callers can hand them out without sharing
// activity slices.
func CloneStops(stops []Stop) []Stop {
	out := make([]Stop, len(stops))
	for i, s := range stops {
		out[i] = s
		out[i].Activities = append([]Activity{}, s.Activities...)
	}
	return out
}
