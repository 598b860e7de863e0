package ledger

import (
	"context"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/signals"
)

// RecordEvent stores one engagement event for signal computation.
func (s *Store) RecordEvent(ctx context.Context, targetType domain.TargetType, targetID, userID string, kind signals.EventKind, amount int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engagement_events (target_type, target_id, user_id, kind, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(targetType), targetID, userID, string(kind), amount, formatTime(at))
	return err
}

// EventsForTarget retrieves a target's engagement events since the cutoff,
// oldest first, ready to hand to the signal calculator.
func (s *Store) EventsForTarget(ctx context.Context, targetType domain.TargetType, targetID string, since time.Time) ([]signals.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, kind, amount, created_at FROM engagement_events
		WHERE target_type = ? AND target_id = ? AND created_at >= ?
		ORDER BY created_at ASC`,
		string(targetType), targetID, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []signals.Event
	for rows.Next() {
		var (
			e         signals.Event
			kind      string
			createdAt string
		)
		if err := rows.Scan(&e.UserID, &kind, &e.Amount, &createdAt); err != nil {
			return nil, err
		}
		e.Kind = signals.EventKind(kind)
		e.At, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ActiveTargets returns the distinct targets that have seen engagement since
// the cutoff. The signal sweep recomputes scores only for these.
func (s *Store) ActiveTargets(ctx context.Context, since time.Time) (map[domain.TargetType][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT target_type, target_id FROM engagement_events
		WHERE created_at >= ?`, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	targets := make(map[domain.TargetType][]string)
	for rows.Next() {
		var targetType, targetID string
		if err := rows.Scan(&targetType, &targetID); err != nil {
			return nil, err
		}
		tt := domain.TargetType(targetType)
		targets[tt] = append(targets[tt], targetID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return targets, nil
}

// PruneEvents deletes engagement events older than the cutoff and returns the
// number of rows removed. Positions are never pruned; only events are.
func (s *Store) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM engagement_events WHERE created_at < ?`, formatTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
