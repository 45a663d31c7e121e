package footprint

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eco-voyage/travel-app/footprint-backend/internal/factors"
)

// Rewarder awards points for a successfully logged activity. Implemented
// by the rewards service; the award amount is its policy, not ours.
type Rewarder interface {
	Award(ctx context.Context, userID string) error
}

// Service implements the activity logging protocol and the footprint read
// paths.
type Service struct {
	repo     Repository
	factors  factors.Source
	rewarder Rewarder
	logger   *zap.Logger
}

// NewService creates a new footprint service.
func NewService(repo Repository, source factors.Source, rewarder Rewarder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		factors:  source,
		rewarder: rewarder,
		logger:   logger,
	}
}

// LogActivity runs one activity through the five-stage protocol:
// validate, price, persist, aggregate, reward.
//
// The persisted activity row is the commit point. Validation, pricing,
// and persistence failures abort with no side effects; aggregate and
// reward failures after the persist are enqueued for asynchronous retry
// and the call still succeeds, so the caller's view of "logged" matches
// the durable log.
func (s *Service) LogActivity(ctx context.Context, userID string, req *LogActivityRequest) (*LogActivityResult, error) {
	// Stage 1: validate.
	date, err := NormalizeDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := ValidateDetail(req.Category, req.Detail); err != nil {
		return nil, err
	}

	// Stage 2: price against the active factor table.
	table, err := s.factors.Current(ctx)
	if err != nil {
		return nil, err
	}

	carbonKg, err := Calculate(req.Category, req.Detail, table)
	if err != nil {
		return nil, err
	}

	if subtype := subtypeOf(req.Category, req.Detail); !table.Has(string(req.Category), subtype) {
		s.logger.Warn("Unknown activity subtype priced at zero",
			zap.String("activity_type", string(req.Category)),
			zap.String("subtype", subtype))
	}

	// Stage 3: persist. Durability point.
	record := &ActivityRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      date,
		Category:  req.Category,
		Detail:    *req.Detail,
		CarbonKg:  carbonKg,
		TripID:    req.TripID,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertActivity(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to log activity: %w", err)
	}

	// Stage 4: aggregate. Never rolls back the persisted record.
	if err := s.repo.AddToDailyAggregate(ctx, userID, date, carbonKg); err != nil {
		s.logger.Error("Daily aggregate update failed, enqueueing retry",
			zap.String("activity_id", record.ID.String()),
			zap.Error(err))
		s.enqueueRetry(ctx, record, OutboxAggregate)
	}

	// Stage 5: reward.
	if err := s.rewarder.Award(ctx, userID); err != nil {
		s.logger.Error("Reward award failed, enqueueing retry",
			zap.String("activity_id", record.ID.String()),
			zap.Error(err))
		s.enqueueRetry(ctx, record, OutboxReward)
	}

	s.logger.Info("Activity logged",
		zap.String("activity_id", record.ID.String()),
		zap.String("user_id", userID),
		zap.String("date", date),
		zap.String("activity_type", string(req.Category)),
		zap.Float64("carbon_kg", carbonKg))

	return &LogActivityResult{
		ActivityID: record.ID,
		CarbonKg:   carbonKg,
	}, nil
}

// enqueueRetry records a failed side effect in the outbox. An enqueue
// failure only loses the fast retry path: reward balances still converge
// through the daily reconciliation, so it is logged and swallowed.
func (s *Service) enqueueRetry(ctx context.Context, record *ActivityRecord, kind string) {
	entry := &OutboxEntry{
		ID:         uuid.New(),
		ActivityID: record.ID,
		UserID:     record.UserID,
		Date:       record.Date,
		CarbonKg:   record.CarbonKg,
		Kind:       kind,
	}
	if err := s.repo.EnqueueOutbox(ctx, entry); err != nil {
		s.logger.Error("Failed to enqueue outbox entry",
			zap.String("activity_id", record.ID.String()),
			zap.String("kind", kind),
			zap.Error(err))
	}
}

// GetFootprints returns the daily carbon totals for the inclusive date
// range, keyed by date. Days without logged activity are absent from the
// map; a configured zero-factor day appears with value 0.
func (s *Service) GetFootprints(ctx context.Context, userID, startDate, endDate string) (map[string]float64, error) {
	start, err := NormalizeDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date", ErrInvalidInput)
	}
	end, err := NormalizeDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date", ErrInvalidInput)
	}

	aggregates, err := s.repo.GetDailyAggregates(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch footprints: %w", err)
	}

	footprints := make(map[string]float64, len(aggregates))
	for _, agg := range aggregates {
		footprints[agg.Date] = agg.TotalKg
	}

	return footprints, nil
}

// RetryPending re-drives outbox entries. Each entry is removed only after
// its side effect applies, so delivery is at-least-once; both the
// aggregate increment and the award re-apply against stores that accept
// repeated increments, and any residual leaderboard drift is healed by
// the daily reconciliation.
func (s *Service) RetryPending(ctx context.Context, limit int) (int, error) {
	entries, err := s.repo.ListPendingOutbox(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending outbox entries: %w", err)
	}

	retried := 0
	for _, entry := range entries {
		var applyErr error
		switch entry.Kind {
		case OutboxAggregate:
			applyErr = s.repo.AddToDailyAggregate(ctx, entry.UserID, entry.Date, entry.CarbonKg)
		case OutboxReward:
			applyErr = s.rewarder.Award(ctx, entry.UserID)
		default:
			s.logger.Warn("Unknown outbox kind, dropping entry",
				zap.String("outbox_id", entry.ID.String()),
				zap.String("kind", entry.Kind))
			applyErr = nil
		}

		if applyErr != nil {
			s.logger.Error("Outbox retry failed",
				zap.String("outbox_id", entry.ID.String()),
				zap.String("kind", entry.Kind),
				zap.Int("attempts", entry.Attempts),
				zap.Error(applyErr))
			if err := s.repo.MarkOutboxFailed(ctx, entry.ID); err != nil {
				s.logger.Error("Failed to record outbox attempt", zap.Error(err))
			}
			continue
		}

		if err := s.repo.MarkOutboxDone(ctx, entry.ID); err != nil {
			s.logger.Error("Failed to remove completed outbox entry",
				zap.String("outbox_id", entry.ID.String()),
				zap.Error(err))
			continue
		}
		retried++
	}

	return retried, nil
}
