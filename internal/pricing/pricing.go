// Package pricing computes checkout totals. The tax rate, shipping table and
// coupon rules live behind Policy so checkout code never hardcodes them.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrInvalidCoupon         = errors.New("invalid coupon code")
)

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
)

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	CouponCode   string          `json:"coupon_code,omitempty"`
}

type Policy interface {
	Quote(lines []Line, shippingMethod, couponCode string) (Quote, error)
}

type Coupon interface {
	Code() string
	Discount(subtotal decimal.Decimal) decimal.Decimal
}

// PercentCoupon takes a percentage of the subtotal.
type PercentCoupon struct {
	code    string
	percent decimal.Decimal
}

func NewPercentCoupon(code string, percent int64) PercentCoupon {
	return PercentCoupon{code: normalizeCode(code), percent: decimal.NewFromInt(percent)}
}

func (c PercentCoupon) Code() string { return c.code }

func (c PercentCoupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.percent).Div(decimal.NewFromInt(100))
}

// FixedCoupon takes a flat amount, capped at the subtotal.
type FixedCoupon struct {
	code   string
	amount decimal.Decimal
}

func NewFixedCoupon(code string, amount decimal.Decimal) FixedCoupon {
	return FixedCoupon{code: normalizeCode(code), amount: amount}
}

func (c FixedCoupon) Code() string { return c.code }

func (c FixedCoupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if c.amount.GreaterThan(subtotal) {
		return subtotal
	}
	return c.amount
}

// RulesPolicy is a table-driven Policy.
type RulesPolicy struct {
	TaxRate  decimal.Decimal
	Shipping map[string]decimal.Decimal
	coupons  map[string]Coupon
}

func NewRulesPolicy(taxRate decimal.Decimal, shipping map[string]decimal.Decimal, coupons ...Coupon) *RulesPolicy {
	p := &RulesPolicy{TaxRate: taxRate, Shipping: shipping, coupons: make(map[string]Coupon, len(coupons))}
	for _, c := range coupons {
		p.coupons[c.Code()] = c
	}
	return p
}

// Default is the storefront's launch policy: 8% tax, flat shipping per
// method and a single SAVE10 coupon.
func Default() *RulesPolicy {
	return NewRulesPolicy(
		decimal.RequireFromString("0.08"),
		map[string]decimal.Decimal{
			ShippingStandard: decimal.RequireFromString("5.99"),
			ShippingExpress:  decimal.RequireFromString("14.99"),
		},
		NewPercentCoupon("SAVE10", 10),
	)
}

func (p *RulesPolicy) ShippingCost(method string) (decimal.Decimal, error) {
	cost, ok := p.Shipping[method]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, method)
	}
	return cost, nil
}

// Coupon looks a code up case-insensitively. An empty code yields nil.
func (p *RulesPolicy) Coupon(code string) (Coupon, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, nil
	}
	c, ok := p.coupons[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCoupon, code)
	}
	return c, nil
}

func (p *RulesPolicy) Quote(lines []Line, shippingMethod, couponCode string) (Quote, error) {
	shipping, err := p.ShippingCost(shippingMethod)
	if err != nil {
		return Quote{}, err
	}
	coupon, err := p.Coupon(couponCode)
	if err != nil {
		return Quote{}, err
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	q := Quote{
		Subtotal:     subtotal,
		Tax:          subtotal.Mul(p.TaxRate).Round(2),
		ShippingCost: shipping,
		Discount:     decimal.Zero,
	}
	if coupon != nil {
		q.Discount = coupon.Discount(subtotal).Round(2)
		q.CouponCode = coupon.Code()
	}
	q.Total = q.Subtotal.Add(q.Tax).Add(q.ShippingCost).Sub(q.Discount)
	return q, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
