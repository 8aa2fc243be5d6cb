package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/cache"
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var ErrCustomerNotFound = errors.New("customer not found")

const profileKnownTTL = 24 * time.Hour

type ProfileService struct {
	userRepo repository.UserRepository
	cache    *cache.Store
}

func NewProfileService(userRepo repository.UserRepository, store *cache.Store) *ProfileService {
	return &ProfileService{userRepo: userRepo, cache: store}
}

// Ensure makes sure a profile row exists for an authenticated user. A Redis
// marker keeps it to one write per user per day.
func (s *ProfileService) Ensure(ctx context.Context, userID uuid.UUID, email string) error {
	key := cache.ProfileKnownKey(userID)
	if seen, err := s.cache.Seen(ctx, key); err == nil && seen {
		return nil
	}
	if err := s.userRepo.Ensure(ctx, userID, email); err != nil {
		return err
	}
	_ = s.cache.Mark(ctx, key, profileKnownTTL)
	return nil
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if user == nil {
		return nil, ErrCustomerNotFound
	}
	return user, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
