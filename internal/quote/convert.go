package quote

import "github.com/shopspring/decimal"

var trillion = decimal.New(1, 12)

// ToTrillions converts a raw market capitalization to trillions of the same
// currency. A nil input stays nil.
func ToTrillions(raw *float64) *float64 {
	if raw == nil {
		return nil
	}
	v, _ := decimal.NewFromFloat(*raw).Div(trillion).Float64()
	return &v
}

// ToBillions is used for progress output only.
func ToBillions(raw float64) float64 {
	v, _ := decimal.NewFromFloat(raw).Shift(-9).Float64()
	return v
}
