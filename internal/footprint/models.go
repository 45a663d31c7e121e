package footprint

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category is the activity taxonomy. Fixed set, not user-extensible.
type Category string

const (
	CategoryTransport     Category = "transport"
	CategoryFood          Category = "food"
	CategoryAccommodation Category = "accommodation"
)

// Valid reports whether the category is one of the recognized three.
func (c Category) Valid() bool {
	switch c {
	case CategoryTransport, CategoryFood, CategoryAccommodation:
		return true
	}
	return false
}

// ErrInvalidInput marks validation failures. Rejections carry no side
// effects: nothing is persisted before validation passes.
var ErrInvalidInput = errors.New("invalid activity input")

// ActivityDetail is the category-specific payload of a logged activity.
// Only the fields for the record's category are meaningful.
type ActivityDetail struct {
	// transport
	Mode     string  `json:"mode,omitempty"`
	Distance float64 `json:"distance,omitempty"`

	// food
	MealType string `json:"mealType,omitempty"`
	Count    int    `json:"count,omitempty"`

	// accommodation
	Type   string `json:"type,omitempty"`
	Nights int    `json:"nights,omitempty"`
}

// ActivityRecord is one logged activity. Records are append-only: the
// carbon value is computed once against the factor table active at log
// time and never recomputed, even if factors later change.
type ActivityRecord struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	UserID    string         `json:"userId" db:"user_id"`
	Date      string         `json:"date" db:"activity_date"`
	Category  Category       `json:"activityType" db:"activity_type"`
	Detail    ActivityDetail `json:"details" db:"details"`
	CarbonKg  float64        `json:"carbonFootprint" db:"carbon_footprint"`
	TripID    *string        `json:"tripId,omitempty" db:"trip_id"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// DailyAggregate is the running carbon total for one user on one calendar
// day. Maintained incrementally; never recomputed by full scan.
type DailyAggregate struct {
	UserID    string    `json:"userId" db:"user_id"`
	Date      string    `json:"date" db:"footprint_date"`
	TotalKg   float64   `json:"totalFootprint" db:"total_footprint"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Outbox side-effect kinds.
const (
	OutboxAggregate = "aggregate"
	OutboxReward    = "reward"
)

// OutboxEntry records a failed post-persist side effect so a worker can
// re-drive it. The persisted activity row is the commit point; aggregate
// and reward updates are retried, never rolled back.
type OutboxEntry struct {
	ID         uuid.UUID `db:"id"`
	ActivityID uuid.UUID `db:"activity_id"`
	UserID     string    `db:"user_id"`
	Date       string    `db:"activity_date"`
	CarbonKg   float64   `db:"carbon_footprint"`
	Kind       string    `db:"kind"`
	Attempts   int       `db:"attempts"`
	CreatedAt  time.Time `db:"created_at"`
}

// LogActivityRequest is the logActivity payload.
type LogActivityRequest struct {
	Date     string          `json:"date"`
	Category Category        `json:"activityType"`
	Detail   *ActivityDetail `json:"details"`
	TripID   *string         `json:"tripId,omitempty"`
}

// LogActivityResult is returned once the activity row is durable.
type LogActivityResult struct {
	ActivityID uuid.UUID `json:"activityId"`
	CarbonKg   float64   `json:"carbonFootprint"`
}

const dateLayout = "2006-01-02"

// NormalizeDate parses a calendar date and truncates it to day
// granularity. Accepts plain dates and RFC3339 timestamps.
func NormalizeDate(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.Format(dateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format(dateLayout), nil
	}
	return "", fmt.Errorf("%w: unparseable date %q", ErrInvalidInput, raw)
}
