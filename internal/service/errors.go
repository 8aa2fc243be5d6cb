package service

import (
	"errors"
	"fmt"

	"github.com/flicky/go-storefront/internal/pricing"
)

// ValidationError reports user-correctable input. Services return it before
// touching storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// pricingError turns pricing policy rejections into validation errors.
func pricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrUnknownShippingMethod):
		return &ValidationError{Field: "shipping_method", Message: err.Error()}
	case errors.Is(err, pricing.ErrInvalidCoupon):
		return &ValidationError{Field: "coupon_code", Message: err.Error()}
	}
	return fmt.Errorf("quote: %w", err)
}
