package footprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eco-voyage/travel-app/footprint-backend/internal/factors"
)

func testTable() *factors.Table {
	return &factors.Table{
		Transport: map[string]float64{
			"car":     0.2,
			"plane":   0.25,
			"bicycle": 0,
		},
		Food: map[string]float64{
			"vegetarian": 1.5,
			"meat":       3.2,
		},
		Accommodation: map[string]float64{
			"hotel":  12.0,
			"hostel": 4.5,
		},
	}
}

func TestCalculateTransport(t *testing.T) {
	carbon, err := Calculate(CategoryTransport, &ActivityDetail{Mode: "car", Distance: 50}, testTable())
	require.NoError(t, err)
	assert.Equal(t, 10.0, carbon)
}

func TestCalculateFoodDefaultCount(t *testing.T) {
	carbon, err := Calculate(CategoryFood, &ActivityDetail{MealType: "vegetarian"}, testTable())
	require.NoError(t, err)
	assert.Equal(t, 1.5, carbon)
}

func TestCalculateFoodWithCount(t *testing.T) {
	carbon, err := Calculate(CategoryFood, &ActivityDetail{MealType: "meat", Count: 3}, testTable())
	require.NoError(t, err)
	assert.InDelta(t, 9.6, carbon, 1e-9)
}

func TestCalculateAccommodation(t *testing.T) {
	carbon, err := Calculate(CategoryAccommodation, &ActivityDetail{Type: "hotel"}, testTable())
	require.NoError(t, err)
	assert.Equal(t, 12.0, carbon)

	carbon, err = Calculate(CategoryAccommodation, &ActivityDetail{Type: "hostel", Nights: 4}, testTable())
	require.NoError(t, err)
	assert.Equal(t, 18.0, carbon)
}

func TestCalculateUnknownSubtypePricesAtZero(t *testing.T) {
	carbon, err := Calculate(CategoryTransport, &ActivityDetail{Mode: "hoverboard", Distance: 100}, testTable())
	require.NoError(t, err)
	assert.Equal(t, 0.0, carbon)
}

func TestCalculateZeroFactorSubtype(t *testing.T) {
	// Bicycle is configured with factor 0: a legitimate zero-carbon day.
	carbon, err := Calculate(CategoryTransport, &ActivityDetail{Mode: "bicycle", Distance: 25}, testTable())
	require.NoError(t, err)
	assert.Equal(t, 0.0, carbon)
}

func TestValidateDetailRejections(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		detail   *ActivityDetail
	}{
		{"unknown category", Category("teleportation"), &ActivityDetail{}},
		{"nil detail", CategoryTransport, nil},
		{"missing mode", CategoryTransport, &ActivityDetail{Distance: 10}},
		{"zero distance", CategoryTransport, &ActivityDetail{Mode: "car"}},
		{"negative distance", CategoryTransport, &ActivityDetail{Mode: "car", Distance: -5}},
		{"missing meal type", CategoryFood, &ActivityDetail{Count: 2}},
		{"negative meal count", CategoryFood, &ActivityDetail{MealType: "meat", Count: -1}},
		{"missing accommodation type", CategoryAccommodation, &ActivityDetail{Nights: 2}},
		{"negative nights", CategoryAccommodation, &ActivityDetail{Type: "hotel", Nights: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDetail(tt.category, tt.detail)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = Calculate(tt.category, tt.detail, testTable())
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	date, err := NormalizeDate("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", date)

	date, err = NormalizeDate("2024-01-02T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", date)

	_, err = NormalizeDate("")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NormalizeDate("not-a-date")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
