package domain

import (
	"strings"
	"time"
)

// User is the authenticated identity making a request.
// Only UID is guaranteed; the rest comes from the identity provider's claims.
type User struct {
	UID         string
	DisplayName string
	PhotoURL    string
	Email       string
}

// Profile is the stored record of a user. It is created from the token
// claims on first sign-in and afterwards only changes through ProfilePatch.
type Profile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProfile builds the first stored profile for u.
func NewProfile(u User, now time.Time) Profile {
	now = now.UTC()
	return Profile{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProfilePatch holds the profile fields a user may change. Nil fields are
// left alone.
type ProfilePatch struct {
	DisplayName *string
	PhotoURL    *string
}

// Apply returns p with the patch merged in.
func (pp ProfilePatch) Apply(p Profile) Profile {
	if pp.DisplayName != nil {
		p.DisplayName = *pp.DisplayName
	}
	if pp.PhotoURL != nil {
		p.PhotoURL = *pp.PhotoURL
	}
	return p
}

// Ranks shown on the profile page.
const (
	RankVanguard = "Vanguard"
	RankS        = "S-Rank"
)

// ProfileStats summarises a user's trips.
type ProfileStats struct {
	Trips        int    `json:"trips"`
	Destinations int    `json:"destinations"`
	Rank         string `json:"rank"`
}

// StatsFor counts trips and distinct destinations. Destinations that differ
// only in case or surrounding space count once. More than five trips earns
// RankS.
func StatsFor(trips []Trip) ProfileStats {
	seen := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		if d := strings.ToLower(strings.TrimSpace(t.Destination)); d != "" {
			seen[d] = struct{}{}
		}
	}
	rank := RankVanguard
	if len(trips) > 5 {
		rank = RankS
	}
	return ProfileStats{Trips: len(trips), Destinations: len(seen), Rank: rank}
}
