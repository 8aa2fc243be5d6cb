package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/cache"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusUnchanged   = errors.New("status already set")
)

// IdentityAdmin removes a user's login from the auth provider.
type IdentityAdmin interface {
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type CustomerDetail struct {
	Customer  *model.User
	Orders    []model.Order
	Addresses []model.Address
}

type AdminService struct {
	userRepo     repository.UserRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	orderRepo    repository.OrderRepository
	addressRepo  repository.AddressRepository
	identity     IdentityAdmin
	cache        *cache.Store
	logger       *slog.Logger
}

func NewAdminService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	identity IdentityAdmin,
	store *cache.Store,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		orderRepo:    orderRepo,
		addressRepo:  addressRepo,
		identity:     identity,
		cache:        store,
		logger:       logger,
	}
}

func (s *AdminService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var (
		stats model.DashboardStats
		err   error
	)
	if stats.Products, err = s.productRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if stats.Categories, err = s.categoryRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if stats.Customers, err = s.userRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if stats.Orders, err = s.orderRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if stats.Revenue, err = s.orderRepo.Revenue(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return &stats, nil
}

func (s *AdminService) ListCustomers(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	users, total, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return users, total, nil
}

func (s *AdminService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDetail, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if user == nil {
		return nil, ErrCustomerNotFound
	}
	orders, err := s.orderRepo.ListByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer orders: %w", err)
	}
	addresses, err := s.addressRepo.ListByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer addresses: %w", err)
	}
	return &CustomerDetail{Customer: user, Orders: orders, Addresses: addresses}, nil
}

// DeleteCustomer removes the auth identity first so a half-deleted customer
// can no longer sign in, then the profile row.
func (s *AdminService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get customer: %w", err)
	}
	if user == nil {
		return ErrCustomerNotFound
	}
	if s.identity != nil {
		if err := s.identity.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("delete auth user: %w", err)
		}
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	// Without the marker a still-valid token goes back through Ensure.
	if err := s.cache.Delete(ctx, cache.ProfileKnownKey(id)); err != nil {
		s.logger.Warn("profile marker not cleared", "user_id", id, "error", err)
	}
	s.logger.Info("customer deleted", "user_id", id)
	return nil
}

func (s *AdminService) ListOrders(ctx context.Context, f repository.OrderFilter) ([]model.Order, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, invalid("status", "unknown order status %q", f.Status)
	}
	orders, total, err := s.orderRepo.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func (s *AdminService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus applies one step of the fulfilment state machine.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*model.Order, error) {
	if !next.Valid() {
		return nil, invalid("status", "unknown order status %q", next)
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	current := order.Status
	if current == next {
		return nil, fmt.Errorf("%w: order is already %s", ErrStatusUnchanged, next)
	}
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, current, next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = next
	s.logger.Info("order status updated", "order_id", id, "from", current, "to", next)
	return order, nil
}

func (s *AdminService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, next model.PaymentStatus) (*model.Order, error) {
	if !next.Valid() {
		return nil, invalid("payment_status", "unknown payment status %q", next)
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	current := order.PaymentStatus
	if current == next {
		return nil, fmt.Errorf("%w: payment is already %s", ErrStatusUnchanged, next)
	}
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	if err := s.orderRepo.UpdatePaymentStatus(ctx, id, current, next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	order.PaymentStatus = next
	s.logger.Info("payment status updated", "order_id", id, "from", current, "to", next)
	return order, nil
}
