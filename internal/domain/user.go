package domain

import (
	"slices"
	"time"
)

// User is a registered profile with social graph counters and stake
// aggregates. Counters mutate through follow/unfollow and stake events.
type User struct {
	CreatedAt       time.Time `json:"created_at"`
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"display_name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"password_hash,omitempty"` // Stored hashed, stripped from API responses
	Avatar          string    `json:"avatar,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	Followers       int       `json:"followers"`
	Following       int       `json:"following"`
	FollowingIDs    []string  `json:"following_ids"`
	TotalStaked     int64     `json:"total_staked"`
	ReputationScore int       `json:"reputation_score"`
	TrustedContexts []string  `json:"trusted_contexts"`
}

// IsFollowing reports whether the user follows the given user ID.
func (u *User) IsFollowing(userID string) bool {
	return slices.Contains(u.FollowingIDs, userID)
}

// Follow adds the given user ID to the following set and bumps the counter.
// Following yourself or someone you already follow is a no-op.
func (u *User) Follow(userID string) bool {
	if userID == u.ID || u.IsFollowing(userID) {
		return false
	}
	u.FollowingIDs = append(u.FollowingIDs, userID)
	u.Following = len(u.FollowingIDs)
	return true
}

// Unfollow removes the given user ID from the following set.
// Returns false if the user was not followed.
func (u *User) Unfollow(userID string) bool {
	for i, followed := range u.FollowingIDs {
		if followed == userID {
			u.FollowingIDs = slices.Delete(u.FollowingIDs, i, i+1)
			u.Following = len(u.FollowingIDs)
			return true
		}
	}
	return false
}
