package pricing

import (
	"errors"
	"math"
	"time"
)

// MaxPrice is the largest value a decimal(10,2) price column holds.
const MaxPrice = 99999999.99

var (
	ErrNegativePrice          = errors.New("price must not be negative")
	ErrPriceOutOfRange        = errors.New("price is not a finite amount within range")
	ErrInvalidDiscountPercent = errors.New("discount percentage must be between 1 and 99")
	ErrInvalidWindow          = errors.New("discount end must be after start")
)

// Quote is what a customer sees for one item.
type Quote struct {
	DisplayPrice   float64  `json:"display_price"`
	OriginalPrice  *float64 `json:"original_price,omitempty"`
	SavingsPercent int      `json:"savings_percent"`
}

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ApplyDiscount prices basePrice with pct off when active. pct <= 0 means no discount.
func ApplyDiscount(basePrice float64, pct int, active bool) Quote {
	if !active || pct <= 0 {
		return Quote{DisplayPrice: basePrice}
	}
	original := basePrice
	return Quote{
		DisplayPrice:   Round2(basePrice * (1 - float64(pct)/100)),
		OriginalPrice:  &original,
		SavingsPercent: pct,
	}
}

// ValidateDiscount checks a discount before it is written. An active
// discount of 0 is accepted and treated as no discount.
func ValidateDiscount(pct int, active bool) error {
	if !active {
		return nil
	}
	if pct == 0 {
		return nil
	}
	if pct < 1 || pct > 99 {
		return ErrInvalidDiscountPercent
	}
	return nil
}

// SavingsFromStored recomputes the savings percentage from a stored price pair.
func SavingsFromStored(original, price float64) int {
	if original <= 0 || price >= original {
		return 0
	}
	return int(math.Round((original - price) / original * 100))
}

// Window is an optional activation period for a discount.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Live reports whether now falls inside the window. Missing bounds are open.
func (w Window) Live(now time.Time) bool {
	if w.Start != nil && now.Before(*w.Start) {
		return false
	}
	if w.End != nil && now.After(*w.End) {
		return false
	}
	return true
}

func (w Window) Validate() error {
	if w.Start != nil && w.End != nil && w.End.Before(*w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Stored is the price state as persisted on a menu item.
type Stored struct {
	Price          float64
	OriginalPrice  *float64
	DiscountActive bool
	Window         Window
}

// BasePrice is the undiscounted price implied by the stored row.
func (s Stored) BasePrice() float64 {
	if s.DiscountActive && s.OriginalPrice != nil {
		return *s.OriginalPrice
	}
	return s.Price
}

// Display is the customer-facing quote for a stored item at now. Outside
// the window the item shows its base price. Savings come from the stored
// price pair, not the stored percentage.
func Display(s Stored, now time.Time) Quote {
	if !s.DiscountActive || s.OriginalPrice == nil || !s.Window.Live(now) {
		return Quote{DisplayPrice: s.BasePrice()}
	}
	savings := SavingsFromStored(*s.OriginalPrice, s.Price)
	if savings == 0 {
		return Quote{DisplayPrice: s.BasePrice()}
	}
	original := *s.OriginalPrice
	return Quote{
		DisplayPrice:   s.Price,
		OriginalPrice:  &original,
		SavingsPercent: savings,
	}
}

// ValidatePrice accepts finite amounts from 0 up to MaxPrice.
func ValidatePrice(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v > MaxPrice {
		return ErrPriceOutOfRange
	}
	if v < 0 {
		return ErrNegativePrice
	}
	return nil
}

// Normalize returns the (price, original_price) pair to persist for a base
// price and discount so the stored row always satisfies
// price == round2(original * (1 - pct/100)) while active.
func Normalize(basePrice float64, pct int, active bool) (price float64, original *float64, err error) {
	if err := ValidatePrice(basePrice); err != nil {
		return 0, nil, err
	}
	if err := ValidateDiscount(pct, active); err != nil {
		return 0, nil, err
	}
	q := ApplyDiscount(Round2(basePrice), pct, active)
	return q.DisplayPrice, q.OriginalPrice, nil
}
