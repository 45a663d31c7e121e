package factors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableFactor(t *testing.T) {
	table := &Table{
		Transport:     map[string]float64{"car": 0.2, "bicycle": 0},
		Food:          map[string]float64{"vegetarian": 1.5},
		Accommodation: map[string]float64{"hotel": 12.0},
	}

	assert.Equal(t, 0.2, table.Factor(CategoryTransport, "car"))
	assert.Equal(t, 1.5, table.Factor(CategoryFood, "vegetarian"))
	assert.Equal(t, 12.0, table.Factor(CategoryAccommodation, "hotel"))

	// Unknown subtypes price at zero rather than failing.
	assert.Equal(t, 0.0, table.Factor(CategoryTransport, "hoverboard"))
	assert.Equal(t, 0.0, table.Factor("unknown-category", "car"))
}

func TestTableHas(t *testing.T) {
	table := &Table{
		Transport: map[string]float64{"bicycle": 0},
	}

	// A configured zero factor is distinguishable from a missing entry.
	assert.True(t, table.Has(CategoryTransport, "bicycle"))
	assert.False(t, table.Has(CategoryTransport, "car"))
	assert.False(t, table.Has(CategoryFood, "vegetarian"))
}

func TestStaticSource(t *testing.T) {
	src := &StaticSource{Table: &Table{Version: "v1"}}

	table, err := src.Current(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "v1", table.Version)

	empty := &StaticSource{}
	_, err = empty.Current(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
