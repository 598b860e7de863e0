package dto

import "github.com/stackedapp/stacked-server/internal/domain"

// PublicUser returns a response copy of a user with the stored password
// hash stripped. The hash field is omitempty, so the cleared copy
// serializes without it.
func PublicUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	public := *u
	public.PasswordHash = ""
	return &public
}
