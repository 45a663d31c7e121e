package rewards

import "time"

// ActivityAward is the fixed number of points granted per logged
// activity, independent of its carbon value.
const ActivityAward = 10

// Balance is a user's authoritative reward point total. Monotonically
// non-decreasing: points are only ever added.
type Balance struct {
	UserID    string    `json:"userId" db:"user_id"`
	Points    int64     `json:"totalRewardPoints" db:"total_points"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// LeaderboardEntry is the denormalized ranking row: balance plus profile
// display fields. Eventually consistent with Balance; the daily
// reconciliation rebuilds it from the authoritative balances.
type LeaderboardEntry struct {
	UserID        string `json:"id"`
	Username      string `json:"username"`
	ProfilePicURL string `json:"profilePicUrl,omitempty"`
	Points        int64  `json:"totalRewardPoints"`
}

// LeaderboardResponse is the getLeaderboard result. UserRank is nil when
// the caller has no balance yet.
type LeaderboardResponse struct {
	Entries  []LeaderboardEntry `json:"leaderboard"`
	UserRank *int64             `json:"userRank"`
}
