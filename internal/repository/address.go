package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-storefront/internal/model"
)

type AddressRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error)
	// Create inserts the address. When it is marked default, the user's other
	// defaults of the same type are cleared in the same transaction.
	Create(ctx context.Context, address *model.Address) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*model.Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type pgAddressRepo struct{ pool *pgxpool.Pool }

func NewAddressRepository(pool *pgxpool.Pool) AddressRepository {
	return &pgAddressRepo{pool: pool}
}

const addressColumns = `id, user_id, type, first_name, last_name, company, address_line1, address_line2,
	city, state, postal_code, country, phone, is_default, created_at, updated_at`

func scanAddress(row pgx.Row, a *model.Address) error {
	return row.Scan(
		&a.ID, &a.UserID, &a.Type, &a.FirstName, &a.LastName, &a.Company, &a.AddressLine1, &a.AddressLine2,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (r *pgAddressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []model.Address
	for rows.Next() {
		var a model.Address
		if err := scanAddress(rows, &a); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *pgAddressRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	return getAddress(ctx, r.pool, id)
}

func getAddress(ctx context.Context, db DBTX, id uuid.UUID) (*model.Address, error) {
	a := &model.Address{}
	if err := scanAddress(db.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id), a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

func clearDefaults(ctx context.Context, tx pgx.Tx, userID uuid.UUID, addrType model.AddressType) error {
	_, err := tx.Exec(ctx,
		`UPDATE addresses SET is_default = FALSE, updated_at = NOW()
		 WHERE user_id = $1 AND type = $2 AND is_default`,
		userID, addrType,
	)
	if err != nil {
		return fmt.Errorf("clear default addresses: %w", err)
	}
	return nil
}

func (r *pgAddressRepo) Create(ctx context.Context, address *model.Address) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if address.IsDefault {
		if err := clearDefaults(ctx, tx, address.UserID, address.Type); err != nil {
			return err
		}
	}

	address.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO addresses (id, user_id, type, first_name, last_name, company, address_line1, address_line2,
		 city, state, postal_code, country, phone, is_default, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		address.ID, address.UserID, address.Type, address.FirstName, address.LastName, address.Company,
		address.AddressLine1, address.AddressLine2, address.City, address.State, address.PostalCode,
		address.Country, address.Phone, address.IsDefault,
	).Scan(&address.CreatedAt, &address.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	return tx.Commit(ctx)
}

// SetDefault returns nil when the address does not exist or belongs to
// another user.
func (r *pgAddressRepo) SetDefault(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := getAddress(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if a == nil || a.UserID != userID {
		return nil, nil
	}
	if a.IsDefault {
		return a, nil
	}

	if err := clearDefaults(ctx, tx, userID, a.Type); err != nil {
		return nil, err
	}
	err = tx.QueryRow(ctx,
		`UPDATE addresses SET is_default = TRUE, updated_at = NOW() WHERE id = $1 RETURNING updated_at`, id,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("set default address: %w", err)
	}
	a.IsDefault = true

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return a, nil
}

func (r *pgAddressRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
