package fundamentals

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

// Metric is an optional decimal. Missing values serialise as "N/A" and
// present values as numbers rounded to Places decimal places.
type Metric struct {
	Value decimal.Decimal
	Valid bool
	// Places is the rounding applied when serialising; 4 when zero
	Places int32
}

// Some wraps a present value
func Some(d decimal.Decimal) Metric {
	return Metric{Value: d, Valid: true}
}

// FromFloat wraps a float; use FromFloatPtr when the source may be absent
func FromFloat(f float64) Metric {
	return Some(decimal.NewFromFloat(f))
}

// FromFloatPtr wraps an optional float
func FromFloatPtr(f *float64) Metric {
	if f == nil {
		return Metric{}
	}
	return FromFloat(*f)
}

// Missing is the absent metric
func Missing() Metric { return Metric{} }

// WithPlaces returns a copy serialised with the given precision
func (m Metric) WithPlaces(p int32) Metric {
	m.Places = p
	return m
}

func (m Metric) places() int32 {
	if m.Places == 0 {
		return 4
	}
	return m.Places
}

// String renders the rounded value or "N/A"
func (m Metric) String() string {
	if !m.Valid {
		return notAvailable
	}
	return m.Value.Round(m.places()).String()
}

// MarshalJSON implements json.Marshaler
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return json.Marshal(notAvailable)
	}
	return []byte(m.Value.Round(m.places()).String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings, null and "N/A"
func (m *Metric) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`"N/A"`)) || bytes.Equal(trimmed, []byte(`""`)) {
		*m = Metric{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	*m = Some(d)
	return nil
}

// PctChange is (current-previous)/|previous|*100 rounded to 2 places;
// missing when either side is missing or previous is zero.
func PctChange(current, previous Metric) Metric {
	if !current.Valid || !previous.Valid || previous.Value.IsZero() {
		return Missing().WithPlaces(2)
	}
	change := current.Value.Sub(previous.Value).
		Div(previous.Value.Abs()).
		Mul(decimal.NewFromInt(100))
	return Some(change).WithPlaces(2)
}
