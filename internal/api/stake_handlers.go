package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/http/response"
	"github.com/stackedapp/stacked-server/internal/service"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

// PlaceStakeRequest is the request body for placing a stake.
type PlaceStakeRequest struct {
	TargetType string `json:"target_type" validate:"required"`
	TargetID   string `json:"target_id" validate:"required"`
	ItemID     string `json:"item_id"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	Direction  string `json:"direction"`
}

// StakeResponse is the appended position plus the target's updated totals.
type StakeResponse struct {
	Position *domain.StakePosition `json:"position"`
	Totals   *ledger.TargetTotals  `json:"totals"`
}

// handlePlaceStake appends a stake position and folds it into the
// target's aggregates.
func (s *Server) handlePlaceStake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := getUserID(ctx)

	var req PlaceStakeRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	position, err := s.services.Stakes.RecordStake(ctx, userID, service.StakeParams{
		TargetType: domain.TargetType(req.TargetType),
		TargetID:   req.TargetID,
		ItemID:     req.ItemID,
		Amount:     req.Amount,
		Direction:  domain.Direction(req.Direction),
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	totals, err := s.services.Stakes.TotalsForTarget(ctx, position.TargetType, position.TargetID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, StakeResponse{Position: position, Totals: totals}, s.logger)
}

// handleMyStakes returns the caller's full position history, newest first.
func (s *Server) handleMyStakes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	positions, err := s.services.Stakes.StakesForUser(ctx, getUserID(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, positions, s.logger)
}
