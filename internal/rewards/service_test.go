package rewards

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) AddPoints(ctx context.Context, userID string, delta int64) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

func (m *MockRepository) GetBalance(ctx context.Context, userID string) (int64, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockRepository) ListBalances(ctx context.Context) ([]LeaderboardEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LeaderboardEntry), args.Error(1)
}

// fakeProjection is an in-memory Projection honoring the same rank and
// ordering contract as the Redis implementation.
type fakeProjection struct {
	scores   map[string]int64
	profiles map[string]LeaderboardEntry
	addErr   error
}

func newFakeProjection() *fakeProjection {
	return &fakeProjection{
		scores:   make(map[string]int64),
		profiles: make(map[string]LeaderboardEntry),
	}
}

func (p *fakeProjection) Add(ctx context.Context, userID string, delta int64) error {
	if p.addErr != nil {
		return p.addErr
	}
	p.scores[userID] += delta
	return nil
}

func (p *fakeProjection) TopN(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	entries := make([]LeaderboardEntry, 0, len(p.scores))
	for userID, points := range p.scores {
		entry := p.profiles[userID]
		entry.UserID = userID
		entry.Points = points
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (p *fakeProjection) Score(ctx context.Context, userID string) (int64, bool, error) {
	score, ok := p.scores[userID]
	return score, ok, nil
}

func (p *fakeProjection) RankOf(ctx context.Context, points int64) (int64, error) {
	var higher int64
	for _, score := range p.scores {
		if score > points {
			higher++
		}
	}
	return higher + 1, nil
}

func (p *fakeProjection) Rebuild(ctx context.Context, entries []LeaderboardEntry) error {
	p.scores = make(map[string]int64)
	p.profiles = make(map[string]LeaderboardEntry)
	for _, entry := range entries {
		p.scores[entry.UserID] = entry.Points
		p.profiles[entry.UserID] = entry
	}
	return nil
}

func TestAwardIncrementsBalanceAndProjection(t *testing.T) {
	mockRepo := new(MockRepository)
	projection := newFakeProjection()
	service := NewService(mockRepo, projection, zap.NewNop())

	ctx := context.Background()
	mockRepo.On("AddPoints", ctx, "user-1", int64(ActivityAward)).Return(nil)

	require.NoError(t, service.Award(ctx, "user-1"))
	require.NoError(t, service.Award(ctx, "user-1"))

	assert.Equal(t, int64(20), projection.scores["user-1"])
	mockRepo.AssertExpectations(t)
}

func TestAwardSurvivesProjectionFailure(t *testing.T) {
	mockRepo := new(MockRepository)
	projection := newFakeProjection()
	projection.addErr = errors.New("redis down")
	service := NewService(mockRepo, projection, zap.NewNop())

	ctx := context.Background()
	mockRepo.On("AddPoints", ctx, "user-1", int64(ActivityAward)).Return(nil)

	// The authoritative increment is what matters; projection drift is
	// healed by reconciliation.
	assert.NoError(t, service.Award(ctx, "user-1"))
}

func TestAwardBalanceFailurePropagates(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, newFakeProjection(), zap.NewNop())

	ctx := context.Background()
	mockRepo.On("AddPoints", ctx, "user-1", int64(ActivityAward)).Return(errors.New("db down"))

	assert.Error(t, service.Award(ctx, "user-1"))
}

func TestGetLeaderboardRanksWithTies(t *testing.T) {
	projection := newFakeProjection()
	projection.scores = map[string]int64{"user-a": 50, "user-b": 50, "user-c": 30}
	service := NewService(new(MockRepository), projection, zap.NewNop())

	ctx := context.Background()

	// Two users strictly exceed C's balance.
	resp, err := service.GetLeaderboard(ctx, "user-c", 20)
	require.NoError(t, err)
	require.NotNil(t, resp.UserRank)
	assert.Equal(t, int64(3), *resp.UserRank)

	// Tied users share rank 1.
	for _, user := range []string{"user-a", "user-b"} {
		resp, err := service.GetLeaderboard(ctx, user, 20)
		require.NoError(t, err)
		require.NotNil(t, resp.UserRank)
		assert.Equal(t, int64(1), *resp.UserRank)
	}

	// Entries come back in descending point order with a stable tie-break.
	resp, err = service.GetLeaderboard(ctx, "user-a", 20)
	require.NoError(t, err)
	require.Len(t, resp.Entries, 3)
	assert.Equal(t, "user-a", resp.Entries[0].UserID)
	assert.Equal(t, "user-b", resp.Entries[1].UserID)
	assert.Equal(t, "user-c", resp.Entries[2].UserID)
}

func TestGetLeaderboardUnknownCallerHasNoRank(t *testing.T) {
	projection := newFakeProjection()
	projection.scores = map[string]int64{"user-a": 50}
	mockRepo := new(MockRepository)
	mockRepo.On("GetBalance", mock.Anything, "stranger").Return(int64(0), false, nil)
	service := NewService(mockRepo, projection, zap.NewNop())

	resp, err := service.GetLeaderboard(context.Background(), "stranger", 20)
	require.NoError(t, err)
	assert.Nil(t, resp.UserRank)
	assert.Len(t, resp.Entries, 1)
}

func TestGetLeaderboardFallsBackToBalance(t *testing.T) {
	projection := newFakeProjection()
	projection.scores = map[string]int64{"user-a": 50, "user-b": 40}
	mockRepo := new(MockRepository)
	mockRepo.On("GetBalance", mock.Anything, "user-c").Return(int64(45), true, nil)
	service := NewService(mockRepo, projection, zap.NewNop())

	resp, err := service.GetLeaderboard(context.Background(), "user-c", 20)
	require.NoError(t, err)
	require.NotNil(t, resp.UserRank)
	assert.Equal(t, int64(2), *resp.UserRank)
}

func TestGetLeaderboardLimit(t *testing.T) {
	projection := newFakeProjection()
	projection.scores = map[string]int64{"user-a": 50, "user-b": 40, "user-c": 30}
	service := NewService(new(MockRepository), projection, zap.NewNop())

	resp, err := service.GetLeaderboard(context.Background(), "user-a", 2)
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2)
}

func TestReconcileIdempotent(t *testing.T) {
	mockRepo := new(MockRepository)
	projection := newFakeProjection()
	service := NewService(mockRepo, projection, zap.NewNop())

	ctx := context.Background()
	balances := []LeaderboardEntry{
		{UserID: "user-a", Username: "alice", Points: 120},
		{UserID: "user-b", Username: "bob", Points: 80},
	}
	mockRepo.On("ListBalances", ctx).Return(balances, nil)

	// Seed drift that reconciliation must overwrite.
	projection.scores["user-a"] = 90
	projection.scores["ghost"] = 400

	require.NoError(t, service.Reconcile(ctx))
	first, err := projection.TopN(ctx, 20)
	require.NoError(t, err)

	require.NoError(t, service.Reconcile(ctx))
	second, err := projection.TopN(ctx, 20)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(120), projection.scores["user-a"])
	assert.NotContains(t, projection.scores, "ghost")
}
