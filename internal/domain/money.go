package domain

import "github.com/shopspring/decimal"

// Money is a currency amount fixed at 2 fractional digits. All arithmetic
// rounds half-up on construction, so intermediate drift cannot accumulate.
type Money struct {
	decimal.Decimal
}

// Quantity is an order quantity fixed at 3 fractional digits. The smallest
// sellable unit is 0.001 (weighed goods).
type Quantity struct {
	decimal.Decimal
}

const (
	moneyScale    = 2
	quantityScale = 3
)

var minQuantity = decimal.New(1, -quantityScale) // 0.001

func NewMoney(d decimal.Decimal) Money { return Money{d.Round(moneyScale)} }

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, Validationf("money", "", "invalid amount %q", s)
	}
	return NewMoney(d), nil
}

func ZeroMoney() Money { return Money{decimal.Zero} }

func (m Money) Add(o Money) Money { return NewMoney(m.Decimal.Add(o.Decimal)) }
func (m Money) Sub(o Money) Money { return NewMoney(m.Decimal.Sub(o.Decimal)) }

// MulQty prices a quantity of units. Both factors already carry their fixed
// scale; the product is rounded half-up back to currency scale.
func (m Money) MulQty(q Quantity) Money { return NewMoney(m.Decimal.Mul(q.Decimal)) }

// String always renders the two fractional digits, so "250.00" never
// collapses to "250" on the way out.
func (m Money) String() string { return m.Decimal.StringFixed(moneyScale) }

func (m Money) MarshalJSON() ([]byte, error) { return []byte(`"` + m.String() + `"`), nil }

func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }
func (m Money) IsNegative() bool   { return m.Decimal.IsNegative() }
func (m Money) IsZero() bool       { return m.Decimal.IsZero() }

func NewQuantity(d decimal.Decimal) Quantity { return Quantity{d.Round(quantityScale)} }

func QuantityFromString(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, Validationf("quantity", "", "invalid quantity %q", s)
	}
	return NewQuantity(d), nil
}

func QuantityFromInt(n int64) Quantity { return Quantity{decimal.NewFromInt(n)} }

// Valid reports whether the quantity is at or above the minimum sellable unit.
func (q Quantity) Valid() bool { return q.Decimal.GreaterThanOrEqual(minQuantity) }

func (q Quantity) Add(o Quantity) Quantity { return NewQuantity(q.Decimal.Add(o.Decimal)) }
func (q Quantity) Equal(o Quantity) bool   { return q.Decimal.Equal(o.Decimal) }
