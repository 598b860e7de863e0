package ledger

import (
	"context"
	"database/sql"
	"strings"

	"github.com/stackedapp/stacked-server/internal/domain"
	"github.com/stackedapp/stacked-server/internal/store"
)

// positionColumns is the ordered list of columns selected in position queries.
// Must match the scan order in scanPosition.
const positionColumns = `id, user_id, target_type, target_id, item_id, amount, direction, created_at`

// scanPosition scans a sql.Row (or sql.Rows via its Scan method) into a domain.StakePosition.
func scanPosition(scanner interface{ Scan(dest ...any) error }) (*domain.StakePosition, error) {
	var p domain.StakePosition

	var (
		itemID    sql.NullString
		createdAt string
	)

	err := scanner.Scan(
		&p.ID,
		&p.UserID,
		&p.TargetType,
		&p.TargetID,
		&itemID,
		&p.Amount,
		&p.Direction,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if itemID.Valid {
		p.ItemID = itemID.String
	}

	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// AppendPosition inserts a new stake position. Positions are immutable once
// written. Returns store.ErrAlreadyExists if the position ID already exists.
func (s *Store) AppendPosition(ctx context.Context, p *domain.StakePosition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stake_positions (
			id, user_id, target_type, target_id, item_id, amount, direction, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.UserID,
		string(p.TargetType),
		p.TargetID,
		nullString(p.ItemID),
		p.Amount,
		string(p.Direction),
		formatTime(p.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeletePosition removes a position row. Positions are immutable once their
// aggregates are applied; this exists only to unwind a row whose aggregate
// fold failed, so the ledger never shows a stake the targets don't reflect.
func (s *Store) DeletePosition(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM stake_positions WHERE id = ?`, id)
	return err
}

// GetPosition retrieves a position by ID.
// Returns store.ErrNotFound if the position does not exist.
func (s *Store) GetPosition(ctx context.Context, id string) (*domain.StakePosition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM stake_positions WHERE id = ?`, id)

	p, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PositionsForTarget retrieves all positions on a target, newest first.
func (s *Store) PositionsForTarget(ctx context.Context, targetType domain.TargetType, targetID string) ([]*domain.StakePosition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM stake_positions
		WHERE target_type = ? AND target_id = ? ORDER BY created_at DESC, id DESC`,
		string(targetType), targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.StakePosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

// PositionsForUser retrieves all positions a user has written, newest first.
func (s *Store) PositionsForUser(ctx context.Context, userID string) ([]*domain.StakePosition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM stake_positions
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.StakePosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

// HasPosition reports whether the user already holds at least one position on
// the target. Used to decide whether a stake is a first position or a top-up.
func (s *Store) HasPosition(ctx context.Context, userID string, targetType domain.TargetType, targetID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM stake_positions
		WHERE user_id = ? AND target_type = ? AND target_id = ? LIMIT 1`,
		userID, string(targetType), targetID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TargetTotals holds the derived aggregates for one target, recomputable from
// the ledger at any time.
type TargetTotals struct {
	Total        int64 `json:"total"`
	ForTotal     int64 `json:"for_total"`
	AgainstTotal int64 `json:"against_total"`
	StakerCount  int   `json:"staker_count"`
}

// TotalsForTarget recomputes a target's staked totals from the ledger.
// Total is always the sum of for and against amounts.
func (s *Store) TotalsForTarget(ctx context.Context, targetType domain.TargetType, targetID string) (*TargetTotals, error) {
	var t TargetTotals
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(CASE WHEN direction = 'for' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = 'against' THEN amount ELSE 0 END), 0),
			COUNT(DISTINCT user_id)
		FROM stake_positions
		WHERE target_type = ? AND target_id = ?`,
		string(targetType), targetID).Scan(&t.Total, &t.ForTotal, &t.AgainstTotal, &t.StakerCount)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UserStakeOnTarget returns the summed amount the user has staked on a target.
func (s *Store) UserStakeOnTarget(ctx context.Context, userID string, targetType domain.TargetType, targetID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM stake_positions
		WHERE user_id = ? AND target_type = ? AND target_id = ?`,
		userID, string(targetType), targetID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// PositionCount returns the number of positions in the ledger.
func (s *Store) PositionCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stake_positions`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
