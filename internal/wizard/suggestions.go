package wizard

import "strings"

// Suggestion is a popular destination offered on the first step.
type Suggestion struct {
	City       string
	Country    string
	CoverImage string
}

// Destination returns the "City, Country" text the suggestion fills in.
func (s Suggestion) Destination() string {
	return s.City + ", " + s.Country
}

// DefaultCoverImage is used until the destination matches a suggestion.
const DefaultCoverImage = "https://images.unsplash.com/photo-1488646953014-85cb44e25828?q=80&w=1200"

var suggestions = []Suggestion{
	{City: "Tokyo", Country: "Japan", CoverImage: "https://images.unsplash.com/photo-1540959733332-eab4deabeeaf?q=80&w=400"},
	{City: "Paris", Country: "France", CoverImage: "https://images.unsplash.com/photo-1502602898657-3e91760cbb34?q=80&w=400"},
	{City: "New York", Country: "USA", CoverImage: "https://images.unsplash.com/photo-1496442226666-8d4d0e62e6e9?q=80&w=400"},
	{City: "Reykjavik", Country: "Iceland", CoverImage: "https://images.unsplash.com/photo-1476610182048-b716b8518aae?q=80&w=400"},
}

var budgetPresets = []int64{1000, 3000, 5000, 10000}

// Suggestions returns the popular destinations in display order.
func Suggestions() []Suggestion {
	return append([]Suggestion(nil), suggestions...)
}

// BudgetPresets returns the one-tap budget amounts offered on the last step.
func BudgetPresets() []int64 {
	return append([]int64(nil), budgetPresets...)
}

// matchSuggestion returns the first suggestion whose city contains the
// destination text or is contained in it, case-insensitively, so both "tok"
// and "Tokyo, Japan" match Tokyo. Empty input never matches.
func matchSuggestion(destination string) (Suggestion, bool) {
	needle := strings.ToLower(strings.TrimSpace(destination))
	if needle == "" {
		return Suggestion{}, false
	}
	for _, s := range suggestions {
		city := strings.ToLower(s.City)
		if strings.Contains(city, needle) || strings.Contains(needle, city) {
			return s, true
		}
	}
	return Suggestion{}, false
}

// findSuggestion looks a suggestion up by city name.
func findSuggestion(city string) (Suggestion, bool) {
	for _, s := range suggestions {
		if strings.EqualFold(s.City, city) {
			return s, true
		}
	}
	return Suggestion{}, false
}
