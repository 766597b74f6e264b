package filter

import (
	"fmt"
	"math"
	"slices"
)

// Default screening bounds.
const (
	DefaultMinPrice  = 50.0
	DefaultMaxPrice  = 1000.0
	DefaultMoneyness = 5.0
)

// MoneynessChoices are the accepted out-of-the-money percentages.
var MoneynessChoices = []float64{1, 2, 3, 4, 5, 10, 15, 20, 30}

// PriceRange is an inclusive bound on the underlying's price.
type PriceRange struct {
	Min float64
	Max float64
}

func DefaultPriceRange() PriceRange {
	return PriceRange{Min: DefaultMinPrice, Max: DefaultMaxPrice}
}

func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

func (r PriceRange) Validate() error {
	if r.Min < 0 || r.Max < 0 || math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return fmt.Errorf("price range must be non-negative, got %.2f-%.2f", r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("min price %.2f is above max price %.2f", r.Min, r.Max)
	}
	return nil
}

func (r PriceRange) String() string {
	return fmt.Sprintf("%.2f-%.2f", r.Min, r.Max)
}

// Moneyness checks p against MoneynessChoices.
func Moneyness(p float64) error {
	if slices.Contains(MoneynessChoices, p) {
		return nil
	}
	return fmt.Errorf("moneyness %v not supported; choose one of %v", p, MoneynessChoices)
}
