package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/model"
)

type checkoutTestContext struct {
	f         *storefront
	customer  Customer
	products  map[string]*model.Product
	addressID uuid.UUID
	order     *model.Order
	err       error
}

func (c *checkoutTestContext) reset() {
	c.f = newStorefront()
	c.customer = Customer{}
	c.products = make(map[string]*model.Product)
	c.addressID = uuid.Nil
	c.order = nil
	c.err = nil
}

func (c *checkoutTestContext) product(name string) (*model.Product, error) {
	p, ok := c.products[name]
	if !ok {
		return nil, fmt.Errorf("no product named %q", name)
	}
	return p, nil
}

func (c *checkoutTestContext) aSignedInCustomer() error {
	c.customer = c.f.customer()
	return nil
}

func (c *checkoutTestContext) aProductPriced(name, price string) error {
	c.products[name] = c.f.products.add(name, price)
	return nil
}

func (c *checkoutTestContext) theCustomerHasAShippingAddress() error {
	c.addressID = c.f.addresses.add(c.customer.ID).ID
	return nil
}

func (c *checkoutTestContext) theCustomerAddsToTheCartTimesAtOnce(name string, n int) error {
	p, err := c.product(name)
	if err != nil {
		return err
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.f.cartSvc.AddToCart(context.Background(), c.customer.ID, p.ID); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (c *checkoutTestContext) theCartHasLines(n int) error {
	if got := c.f.carts.count(c.customer.ID); got != n {
		return fmt.Errorf("expected %d cart lines, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartLineForHasQuantity(name string, qty int) error {
	p, err := c.product(name)
	if err != nil {
		return err
	}
	cart, err := c.f.cartSvc.GetCart(context.Background(), c.customer.ID)
	if err != nil {
		return err
	}
	for _, item := range cart.Items {
		if item.ProductID == p.ID {
			if item.Quantity != qty {
				return fmt.Errorf("expected quantity %d, got %d", qty, item.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("%q is not in the cart", name)
}

func (c *checkoutTestContext) theCustomerTogglesInTheWishlistBelieving(name, belief string) error {
	p, err := c.product(name)
	if err != nil {
		return err
	}
	_, err = c.f.wishlistSvc.Toggle(context.Background(), c.customer.ID, p.ID, belief == "present")
	return err
}

func (c *checkoutTestContext) wishlistState(name string, want bool) error {
	p, err := c.product(name)
	if err != nil {
		return err
	}
	in, err := c.f.wishlistSvc.Contains(context.Background(), c.customer.ID, p.ID)
	if err != nil {
		return err
	}
	if in != want {
		return fmt.Errorf("expected in wishlist = %v, got %v", want, in)
	}
	return nil
}

func (c *checkoutTestContext) isInTheWishlist(name string) error    { return c.wishlistState(name, true) }
func (c *checkoutTestContext) isNotInTheWishlist(name string) error { return c.wishlistState(name, false) }

func (c *checkoutTestContext) theCustomerPlacesAnOrder(shipping, coupon string) error {
	req := placeRequest(c.addressID)
	req.ShippingMethod = shipping
	req.CouponCode = coupon
	c.order, c.err = c.f.orderSvc.PlaceOrder(context.Background(), c.customer, req)
	return nil
}

func (c *checkoutTestContext) theOrderTotalIs(total string) error {
	if c.err != nil {
		return c.err
	}
	if !c.order.Total.Equal(dec(total)) {
		return fmt.Errorf("expected total %s, got %s", total, c.order.Total)
	}
	return nil
}

func (c *checkoutTestContext) theOrderHasItems(n int) error {
	if c.err != nil {
		return c.err
	}
	if len(c.order.Items) != n {
		return fmt.Errorf("expected %d items, got %d", n, len(c.order.Items))
	}
	return nil
}

func (c *checkoutTestContext) placingTheOrderFailsWith(msg string) error {
	if c.err == nil {
		return errors.New("expected placement to fail")
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err)
	}
	return nil
}

func (c *checkoutTestContext) staffMoveTheOrderTo(status string) error {
	if c.order == nil {
		return fmt.Errorf("no order placed: %v", c.err)
	}
	_, c.err = c.f.adminSvc.UpdateOrderStatus(context.Background(), c.order.ID, model.OrderStatus(status))
	return nil
}

func (c *checkoutTestContext) theLastStatusChange(outcome string) error {
	var want error
	switch outcome {
	case "succeeds":
	case "is an invalid transition":
		want = ErrInvalidTransition
	case "is a no-op rejection":
		want = ErrStatusUnchanged
	default:
		return fmt.Errorf("unknown outcome %q", outcome)
	}
	if want == nil && c.err != nil {
		return fmt.Errorf("expected success, got %v", c.err)
	}
	if want != nil && !errors.Is(c.err, want) {
		return fmt.Errorf("expected %v, got %v", want, c.err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a signed-in customer$`, tc.aSignedInCustomer)
	ctx.Step(`^a product "([^"]*)" priced "([^"]*)"$`, tc.aProductPriced)
	ctx.Step(`^the customer has a shipping address$`, tc.theCustomerHasAShippingAddress)

	// When steps
	ctx.Step(`^the customer adds "([^"]*)" to the cart (\d+) times at once$`, tc.theCustomerAddsToTheCartTimesAtOnce)
	ctx.Step(`^the customer toggles "([^"]*)" in the wishlist believing it is (absent|present)$`, tc.theCustomerTogglesInTheWishlistBelieving)
	ctx.Step(`^the customer places an order with "([^"]*)" shipping and coupon "([^"]*)"$`, tc.theCustomerPlacesAnOrder)
	ctx.Step(`^staff move the order to "([^"]*)"$`, tc.staffMoveTheOrderTo)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the cart line for "([^"]*)" has quantity (\d+)$`, tc.theCartLineForHasQuantity)
	ctx.Step(`^"([^"]*)" is in the wishlist$`, tc.isInTheWishlist)
	ctx.Step(`^"([^"]*)" is not in the wishlist$`, tc.isNotInTheWishlist)
	ctx.Step(`^the order total is "([^"]*)"$`, tc.theOrderTotalIs)
	ctx.Step(`^the order has (\d+) items$`, tc.theOrderHasItems)
	ctx.Step(`^placing the order fails with "([^"]*)"$`, tc.placingTheOrderFailsWith)
	ctx.Step(`^the last status change (succeeds|is an invalid transition|is a no-op rejection)$`, tc.theLastStatusChange)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
