package footprint

import (
	"fmt"

	"eco-voyage/travel-app/footprint-backend/internal/factors"
)

// ValidateDetail checks the category-specific payload before any I/O
// happens. Quantities must be positive; subtype fields must be present.
func ValidateDetail(category Category, detail *ActivityDetail) error {
	if !category.Valid() {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, category)
	}
	if detail == nil {
		return fmt.Errorf("%w: details are required", ErrInvalidInput)
	}

	switch category {
	case CategoryTransport:
		if detail.Mode == "" {
			return fmt.Errorf("%w: transport mode is required", ErrInvalidInput)
		}
		if detail.Distance <= 0 {
			return fmt.Errorf("%w: transport distance must be positive", ErrInvalidInput)
		}
	case CategoryFood:
		if detail.MealType == "" {
			return fmt.Errorf("%w: meal type is required", ErrInvalidInput)
		}
		if detail.Count < 0 {
			return fmt.Errorf("%w: meal count must not be negative", ErrInvalidInput)
		}
	case CategoryAccommodation:
		if detail.Type == "" {
			return fmt.Errorf("%w: accommodation type is required", ErrInvalidInput)
		}
		if detail.Nights < 0 {
			return fmt.Errorf("%w: nights must not be negative", ErrInvalidInput)
		}
	}
	return nil
}

// Calculate prices a validated activity against a factor table snapshot.
// Pure: no I/O, deterministic for a given table.
//
// Subtypes missing from the table price at factor 0 instead of failing,
// matching Table.Factor. Omitted food count and accommodation nights
// default to 1.
func Calculate(category Category, detail *ActivityDetail, table *factors.Table) (float64, error) {
	if err := ValidateDetail(category, detail); err != nil {
		return 0, err
	}

	switch category {
	case CategoryTransport:
		return table.Factor(factors.CategoryTransport, detail.Mode) * detail.Distance, nil
	case CategoryFood:
		count := detail.Count
		if count == 0 {
			count = 1
		}
		return table.Factor(factors.CategoryFood, detail.MealType) * float64(count), nil
	case CategoryAccommodation:
		nights := detail.Nights
		if nights == 0 {
			nights = 1
		}
		return table.Factor(factors.CategoryAccommodation, detail.Type) * float64(nights), nil
	}

	return 0, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, category)
}

// subtypeOf returns the table subtype an activity resolves through, used
// for observability around the zero-factor policy.
func subtypeOf(category Category, detail *ActivityDetail) string {
	switch category {
	case CategoryTransport:
		return detail.Mode
	case CategoryFood:
		return detail.MealType
	case CategoryAccommodation:
		return detail.Type
	}
	return ""
}
