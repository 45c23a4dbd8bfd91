// Package pricing maps a ticket category to the price charged for it.
// Prices are integer cents, matching the *_price_cents columns of the
// events table.
package pricing

import (
	"errors"
	"strings"
)

// Category is the class of a ticket.  Only the values declared below are
// valid; anything else is rejected by ParseCategory.
type Category string

const (
	Normal Category = "Normal"
	VIP    Category = "VIP"
)

// ErrInvalidCategory is returned by ParseCategory for values outside the
// fixed category set.
var ErrInvalidCategory = errors.New("invalid ticket category")

// rule selects the base price for a category and applies a fixed
// num/den markup to it.
type rule struct {
	base     func(normalCents, vipCents int64) int64
	num, den int64
}

func normalBase(normalCents, _ int64) int64 { return normalCents }
func vipBase(_, vipCents int64) int64       { return vipCents }

// rules is the category table.  A new category is a new row here.
var rules = map[Category]rule{
	Normal: {base: normalBase, num: 1, den: 1},
	VIP:    {base: vipBase, num: 3, den: 2}, // 1.5x markup on the VIP price
}

// ParseCategory canonicalises s ("vip", " VIP ") into a Category.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for c := range rules {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := rules[c]
	return ok
}

// PriceFor returns the price in cents for a ticket of category c given the
// event's normal and VIP prices.  Fractional cents round half up.  c must
// be valid; callers parse it at the boundary with ParseCategory.
func PriceFor(c Category, normalCents, vipCents int64) int64 {
	r, ok := rules[c]
	if !ok {
		r = rules[Normal]
	}
	return markup(r.base(normalCents, vipCents), r.num, r.den)
}

func markup(v, num, den int64) int64 {
	return (v*num + den/2) / den
}
