package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/stackedapp/stacked-server/internal/domain"
	domainerrors "github.com/stackedapp/stacked-server/internal/errors"
	"github.com/stackedapp/stacked-server/internal/feed"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/store/ledger"
)

// activityWindow is the lookback for deriving atom activity cards.
const activityWindow = 24 * time.Hour

// activitySurgeThreshold is the minimum recent stake volume on an atom
// before it earns an activity card.
const activitySurgeThreshold = 50

// FeedService composes the home feed from stacks and derived atom
// activity cards. Composition itself is pure; this service assembles the
// inputs and pages the result.
type FeedService struct {
	store  *store.Store
	ledger *ledger.Store
	logger *slog.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(s *store.Store, l *ledger.Store, logger *slog.Logger) *FeedService {
	return &FeedService{
		store:  s,
		ledger: l,
		logger: logger,
	}
}

// FeedPage is one page of a composed feed.
type FeedPage struct {
	Items      []domain.FeedItem `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
	Filter     domain.FeedFilter `json:"filter"`
}

// GetFeed returns one page of the feed for a filter. The cursor must have
// been issued for the same filter; a cursor from another filter is a
// validation error rather than a silently wrong page.
func (s *FeedService) GetFeed(ctx context.Context, filter domain.FeedFilter, cursor string, pageSize int) (*FeedPage, error) {
	if filter == "" {
		filter = domain.FilterAll
	}
	if !filter.Valid() {
		return nil, domainerrors.Validationf("unknown feed filter %q", filter)
	}

	decoded, err := feed.DecodeCursor(cursor)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}
	if cursor != "" && decoded.Filter != filter {
		return nil, domainerrors.Validationf("cursor was issued for filter %q", decoded.Filter)
	}

	stacks, err := s.store.Stacks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stacks: %w", err)
	}

	var activities []*domain.AtomActivity
	if filter == domain.FilterAll || filter == domain.FilterTrending {
		activities, err = s.deriveActivities(ctx, stacks)
		if err != nil {
			// Activity derivation failing should not take the feed down.
			s.logger.Warn("failed to derive activities", "error", err)
			activities = nil
		}
	}

	composed := feed.Compose(filter, stacks, activities)
	items, nextCursor := feed.Page(filter, composed, decoded.Offset, pageSize)

	return &FeedPage{
		Items:      items,
		NextCursor: nextCursor,
		Filter:     filter,
	}, nil
}

// deriveActivities builds atom activity cards from recent ledger events.
// An atom with enough recent stake volume gets a stake-surge card linking
// the stacks that rank it. Cards are ordered newest surge first with atom
// ID as the tie-break, so the sequence is stable between page fetches.
func (s *FeedService) deriveActivities(ctx context.Context, stacks []*domain.Stack) ([]*domain.AtomActivity, error) {
	since := time.Now().Add(-activityWindow)
	targets, err := s.ledger.ActiveTargets(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list active targets: %w", err)
	}

	atomIDs := targets[domain.TargetAtom]
	if len(atomIDs) == 0 {
		return nil, nil
	}

	var activities []*domain.AtomActivity
	for _, atomID := range atomIDs {
		events, err := s.ledger.EventsForTarget(ctx, domain.TargetAtom, atomID, since)
		if err != nil {
			return nil, fmt.Errorf("events for atom %s: %w", atomID, err)
		}

		var volume int64
		stakers := make(map[string]bool)
		var latest time.Time
		for _, event := range events {
			volume += event.Amount
			stakers[event.UserID] = true
			if event.At.After(latest) {
				latest = event.At
			}
		}
		if volume < activitySurgeThreshold {
			continue
		}

		atom, err := s.store.Atoms.Get(ctx, atomID)
		if err != nil {
			continue
		}

		var related []string
		for _, stack := range stacks {
			if stack.ContainsAtom(atomID) {
				related = append(related, stack.ID)
			}
		}

		activities = append(activities, &domain.AtomActivity{
			ID:              "act-" + atomID,
			AtomID:          atomID,
			Type:            domain.ActivityStakeSurge,
			Headline:        fmt.Sprintf("%s is surging", atom.Label),
			Description:     fmt.Sprintf("%d staked by %d users in the last 24h", volume, len(stakers)),
			Metric:          volume,
			MetricLabel:     "staked",
			Timeframe:       "24h",
			RelatedStackIDs: related,
			Signals:         atom.Signals,
			CreatedAt:       latest,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		if !activities[i].CreatedAt.Equal(activities[j].CreatedAt) {
			return activities[i].CreatedAt.After(activities[j].CreatedAt)
		}
		return activities[i].AtomID < activities[j].AtomID
	})
	return activities, nil
}
