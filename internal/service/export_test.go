package service

import "time"

// SetTripClock pins the clock TripService uses for phase filtering and
// CreatedAt stamps.
func SetTripClock(s *TripService, now func() time.Time) { s.now = now }

// SetTripIDGenerator pins the ids TripService gives new stops and activities.
func SetTripIDGenerator(s *TripService, gen func() string) { s.newID = gen }

// SetDraftClock pins the clock used for CreatedAt stamps of submitted drafts.
func SetDraftClock(s *DraftService, now func() time.Time) { s.now = now }

// SetProfileClock pins the clock used for new profiles.
func SetProfileClock(s *ProfileService, now func() time.Time) { s.now = now }
