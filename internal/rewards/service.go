package rewards

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service provides business logic for rewards and the leaderboard.
type Service struct {
	repo       Repository
	projection Projection
	logger     *zap.Logger
}

// NewService creates a new rewards service.
func NewService(repo Repository, projection Projection, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		projection: projection,
		logger:     logger,
	}
}

// Award grants the fixed per-activity points to the user. The balance
// increment is authoritative and its failure propagates; the projection
// mirror is best-effort, since the daily reconciliation rebuilds the
// projection from balances anyway.
func (s *Service) Award(ctx context.Context, userID string) error {
	if err := s.repo.AddPoints(ctx, userID, ActivityAward); err != nil {
		return fmt.Errorf("failed to award points: %w", err)
	}

	if err := s.projection.Add(ctx, userID, ActivityAward); err != nil {
		s.logger.Warn("Leaderboard projection update failed, reconciliation will heal it",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	return nil
}

// GetLeaderboard returns the top entries by points plus the caller's own
// rank. Rank is 1 + the number of users with strictly more points, so
// tied users share a rank; callers with no logged activity get no rank.
func (s *Service) GetLeaderboard(ctx context.Context, userID string, limit int) (*LeaderboardResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	entries, err := s.projection.TopN(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	resp := &LeaderboardResponse{Entries: entries}

	score, ok, err := s.projection.Score(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve caller score: %w", err)
	}
	if !ok {
		// Not yet projected (fresh user, or the live mirror was lost).
		// Fall back to the authoritative balance; still no rank if the
		// caller has never logged an activity.
		score, ok, err = s.repo.GetBalance(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve caller balance: %w", err)
		}
	}
	if ok {
		rank, err := s.projection.RankOf(ctx, score)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve caller rank: %w", err)
		}
		resp.UserRank = &rank
	}

	return resp, nil
}

// Reconcile rebuilds the leaderboard projection from the authoritative
// balances. Runs on a daily schedule as the safety net against projection
// drift; idempotent, and a concurrent live increment lost to the rebuild
// is recovered by the next run.
func (s *Service) Reconcile(ctx context.Context) error {
	entries, err := s.repo.ListBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to list balances for reconciliation: %w", err)
	}

	if err := s.projection.Rebuild(ctx, entries); err != nil {
		return fmt.Errorf("failed to rebuild projection: %w", err)
	}

	s.logger.Info("Leaderboard projection reconciled", zap.Int("entries", len(entries)))
	return nil
}
