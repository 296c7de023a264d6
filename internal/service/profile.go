package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkordes/globe-trotter/internal/domain"
	"github.com/pkordes/globe-trotter/internal/repo"
)

// maxDisplayName caps display names, counted in characters.
const maxDisplayName = 80

// ProfileView is a profile together with the stats shown beside it.
type ProfileView struct {
	Profile domain.Profile
	Stats   domain.ProfileStats
}

// ProfileService keeps the stored profile of each signed-in user and derives
// their trip stats.
type ProfileService struct {
	users repo.UserStore
	trips repo.TripStore
	now   func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users repo.UserStore, trips repo.TripStore) *ProfileService {
	return &ProfileService{users: users, trips: trips, now: time.Now}
}

// Sync creates the user's profile from their token claims unless one exists.
// Later sign-ins never overwrite what the user has edited.
func (s *ProfileService) Sync(ctx context.Context, user *domain.User) (domain.Profile, error) {
	if err := requireUser(user); err != nil {
		return domain.Profile{}, fmt.Errorf("service.ProfileService.Sync: %w", err)
	}

	p, _, err := s.users.Ensure(ctx, domain.NewProfile(*user, s.now()))
	if err != nil {
		logStoreFailure(ctx, "sync profile", err)
		return domain.Profile{}, fmt.Errorf("service.ProfileService.Sync: %w", err)
	}
	return p, nil
}

// Get returns the user's profile and trip stats.
func (s *ProfileService) Get(ctx context.Context, user *domain.User) (ProfileView, error) {
	p, err := s.Sync(ctx, user)
	if err != nil {
		return ProfileView{}, fmt.Errorf("service.ProfileService.Get: %w", err)
	}
	return s.view(ctx, p)
}

// Update changes the display name and/or photo URL. A display name must not
// be blank; a photo URL must be empty or an absolute http(s) URL.
func (s *ProfileService) Update(ctx context.Context, user *domain.User, patch domain.ProfilePatch) (ProfileView, error) {
	patch, err := validateProfilePatch(patch)
	if err != nil {
		return ProfileView{}, fmt.Errorf("service.ProfileService.Update: %w", err)
	}
	if _, err := s.Sync(ctx, user); err != nil {
		return ProfileView{}, fmt.Errorf("service.ProfileService.Update: %w", err)
	}

	p, err := s.users.Update(ctx, user.UID, patch)
	if err != nil {
		logStoreFailure(ctx, "update profile", err)
		return ProfileView{}, fmt.Errorf("service.ProfileService.Update: %w", err)
	}
	return s.view(ctx, p)
}

func (s *ProfileService) view(ctx context.Context, p domain.Profile) (ProfileView, error) {
	trips, err := s.trips.ListByUser(ctx, p.UID)
	if err != nil {
		logStoreFailure(ctx, "list trips for stats", err)
		return ProfileView{}, fmt.Errorf("service.ProfileService: stats: %w", err)
	}
	return ProfileView{Profile: p, Stats: domain.StatsFor(trips)}, nil
}

func validateProfilePatch(p domain.ProfilePatch) (domain.ProfilePatch, error) {
	if p.DisplayName != nil {
		name := strings.TrimSpace(*p.DisplayName)
		if name == "" {
			return p, domain.NewValidationError("display_name", "display name must not be blank")
		}
		if utf8.RuneCountInString(name) > maxDisplayName {
			return p, domain.NewValidationError("display_name", fmt.Sprintf("display name must be at most %d characters", maxDisplayName))
		}
		p.DisplayName = &name
	}
	if p.PhotoURL != nil {
		raw := strings.TrimSpace(*p.PhotoURL)
		if raw != "" {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return p, domain.NewValidationError("photo_url", "photo URL must be an http or https URL")
			}
		}
		p.PhotoURL = &raw
	}
	return p, nil
}
