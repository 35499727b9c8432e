package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValueScale is the number of decimal places monetary values are rounded to
// whenever the ledger derives a value from a volume.
const ValueScale = 2

// Quantity pairs a unit volume with its monetary value.
type Quantity struct {
	Volume int64           `json:"volume" gorm:"not null;default:0"`
	Value  decimal.Decimal `json:"value" gorm:"type:numeric(18,4);not null;default:0"`
}

// NewQuantity validates the boundary constraints and returns the quantity.
func NewQuantity(volume int64, value decimal.Decimal) (Quantity, error) {
	q := Quantity{Volume: volume, Value: value}
	if err := q.Validate("quantity"); err != nil {
		return Quantity{}, err
	}
	return q, nil
}

// MustQuantity parses value and panics on malformed input. Intended for fixtures.
func MustQuantity(volume int64, value string) Quantity {
	return Quantity{Volume: volume, Value: decimal.RequireFromString(value)}
}

// Validate rejects negative volume or value.
func (q Quantity) Validate(field string) error {
	if q.Volume < 0 {
		return NewMismatchError(CodeNegativeQuantity, field+".volume", 0, q.Volume)
	}
	if q.Value.IsNegative() {
		return &ValidationError{
			Code:   CodeNegativeQuantity,
			Field:  field + ".value",
			Reason: fmt.Sprintf("value %s is negative", q.Value.String()),
		}
	}
	return nil
}

func (q Quantity) Add(o Quantity) Quantity {
	return Quantity{Volume: q.Volume + o.Volume, Value: q.Value.Add(o.Value)}
}

func (q Quantity) Sub(o Quantity) Quantity {
	return Quantity{Volume: q.Volume - o.Volume, Value: q.Value.Sub(o.Value)}
}

// FloorZero clamps each component at zero independently.
func (q Quantity) FloorZero() Quantity {
	out := q
	if out.Volume < 0 {
		out.Volume = 0
	}
	if out.Value.IsNegative() {
		out.Value = decimal.Zero
	}
	return out
}

func (q Quantity) IsZero() bool {
	return q.Volume == 0 && q.Value.IsZero()
}

// Equal compares volumes exactly and values numerically.
func (q Quantity) Equal(o Quantity) bool {
	return q.Volume == o.Volume && q.Value.Equal(o.Value)
}

func (q Quantity) String() string {
	return fmt.Sprintf("{volume:%d value:%s}", q.Volume, q.Value.String())
}

// unitValue returns value per unit, zero when the volume is zero.
func (q Quantity) unitValue() decimal.Decimal {
	if q.Volume <= 0 {
		return decimal.Zero
	}
	return q.Value.Div(decimal.NewFromInt(q.Volume))
}
