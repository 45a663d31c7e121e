package factors

// Activity categories recognized by the factor table.
const (
	CategoryTransport     = "transport"
	CategoryFood          = "food"
	CategoryAccommodation = "accommodation"
)

// Table is an immutable snapshot of the emission-factor configuration.
// Each sub-map converts an activity subtype (car, vegetarian, hotel, ...)
// into kg CO2 per unit (km, meal, night).
type Table struct {
	Version       string             `bson:"version,omitempty" json:"version,omitempty"`
	Transport     map[string]float64 `bson:"transport" json:"transport"`
	Food          map[string]float64 `bson:"food" json:"food"`
	Accommodation map[string]float64 `bson:"accommodation" json:"accommodation"`
}

// Factor resolves a subtype within a category. Subtypes missing from the
// table resolve to 0: the activity is still accepted and priced at zero
// rather than rejected, so factor rollouts never block logging.
func (t *Table) Factor(category, subtype string) float64 {
	var m map[string]float64
	switch category {
	case CategoryTransport:
		m = t.Transport
	case CategoryFood:
		m = t.Food
	case CategoryAccommodation:
		m = t.Accommodation
	default:
		return 0
	}
	return m[subtype]
}

// Has reports whether the subtype is actually configured, letting callers
// distinguish a configured zero factor from a missing entry.
func (t *Table) Has(category, subtype string) bool {
	switch category {
	case CategoryTransport:
		_, ok := t.Transport[subtype]
		return ok
	case CategoryFood:
		_, ok := t.Food[subtype]
		return ok
	case CategoryAccommodation:
		_, ok := t.Accommodation[subtype]
		return ok
	}
	return false
}
