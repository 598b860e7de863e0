package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
)

// ProfileService serves user profiles and the follow graph.
type ProfileService struct {
	store         *store.Store
	notifications *NotificationService
	events        *sse.Manager
	logger        *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(s *store.Store, notifications *NotificationService, events *sse.Manager, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:         s,
		notifications: notifications,
		events:        events,
		logger:        logger,
	}
}

// Profile is a user together with their stacks.
type Profile struct {
	User   *domain.User    `json:"user"`
	Stacks []*domain.Stack `json:"stacks"`
}

// GetProfile returns a user's profile with their stacks, newest first.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	stacks, err := s.store.StacksByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list stacks: %w", err)
	}
	return &Profile{User: user, Stacks: stacks}, nil
}

// GetUser returns a user by ID.
func (s *ProfileService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.Users.Get(ctx, userID)
}

// Follow adds a follow edge. Following yourself is a validation error;
// re-following is a no-op that still returns the current state.
func (s *ProfileService) Follow(ctx context.Context, followerID, followedID string) (*domain.User, error) {
	if followerID == followedID {
		return nil, domainerrors.Validation("cannot follow yourself")
	}
	if _, err := s.store.Users.Get(ctx, followedID); err != nil {
		return nil, err
	}

	added := false
	follower, err := s.store.Users.Mutate(ctx, followerID, func(u *domain.User) error {
		added = u.Follow(followedID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !added {
		return follower, nil
	}

	if _, err := s.store.Users.Mutate(ctx, followedID, func(u *domain.User) error {
		u.Followers++
		return nil
	}); err != nil {
		return nil, fmt.Errorf("bump follower count: %w", err)
	}

	if s.events != nil {
		s.events.Emit(sse.NewEvent(sse.EventUserFollowed, sse.FollowEventData{
			FollowerID: followerID,
			FollowedID: followedID,
		}))
	}
	if s.notifications != nil {
		if err := s.notifications.Notify(ctx, NotifyParams{
			UserID:  followedID,
			ActorID: followerID,
			Type:    domain.NotificationFollow,
			Title:   "New follower",
			Body:    fmt.Sprintf("%s started following you", follower.Username),
		}); err != nil {
			s.logger.Warn("failed to notify follow", "followed_id", followedID, "error", err)
		}
	}

	s.logger.Info("user followed", "follower_id", followerID, "followed_id", followedID)
	return follower, nil
}

// Unfollow removes a follow edge. Unfollowing someone not followed is a
// no-op.
func (s *ProfileService) Unfollow(ctx context.Context, followerID, followedID string) (*domain.User, error) {
	removed := false
	follower, err := s.store.Users.Mutate(ctx, followerID, func(u *domain.User) error {
		removed = u.Unfollow(followedID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !removed {
		return follower, nil
	}

	if _, err := s.store.Users.Mutate(ctx, followedID, func(u *domain.User) error {
		if u.Followers > 0 {
			u.Followers--
		}
		return nil
	}); err != nil {
		s.logger.Warn("failed to drop follower count", "followed_id", followedID, "error", err)
	}

	s.logger.Info("user unfollowed", "follower_id", followerID, "followed_id", followedID)
	return follower, nil
}

// GetAlignment compares two users' rankings over the atoms they both
// stack. The score is symmetric in its arguments and bounded [0,100].
func (s *ProfileService) GetAlignment(ctx context.Context, userA, userB string) (*domain.AlignmentData, error) {
	if userA == "" || userB == "" {
		return nil, domainerrors.Validation("both user ids are required")
	}
	if _, err := s.store.Users.Get(ctx, userA); err != nil {
		return nil, err
	}
	if _, err := s.store.Users.Get(ctx, userB); err != nil {
		return nil, err
	}

	stacksA, err := s.store.StacksByCreator(ctx, userA)
	if err != nil {
		return nil, fmt.Errorf("stacks for %s: %w", userA, err)
	}
	stacksB, err := s.store.StacksByCreator(ctx, userB)
	if err != nil {
		return nil, fmt.Errorf("stacks for %s: %w", userB, err)
	}

	return domain.ComputeAlignment(stacksA, stacksB), nil
}
