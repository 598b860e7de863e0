package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/stackedapp/stacked-server/internal/dto"
	"github.com/stackedapp/stacked-server/internal/http/response"
	"github.com/stackedapp/stacked-server/internal/service"
)

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=2,max=40"`
	DisplayName string `json:"display_name" validate:"max=80"`
	Password    string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// handleRegister creates a new account and returns the user plus a token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result, err := s.services.Auth.Register(ctx, service.RegisterParams{
		Email:       req.Email,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result.User = dto.PublicUser(result.User)
	response.Created(w, result, s.logger)
}

// handleLogin verifies credentials and returns the user plus a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result, err := s.services.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result.User = dto.PublicUser(result.User)
	response.Success(w, result, s.logger)
}

// handleGetCurrentUser returns the authenticated user's own record.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.services.Auth.Me(ctx, getUserID(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, dto.PublicUser(user), s.logger)
}
