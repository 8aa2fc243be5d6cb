package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- users ---

type mockUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Ensure(_ context.Context, id uuid.UUID, email string) error {
	if _, ok := m.users[id]; !ok {
		m.users[id] = &model.User{ID: id, Email: email, CreatedAt: time.Now()}
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]model.User, int, error) {
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return page(out, limit, offset), len(out), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	existing, ok := m.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Name, existing.Phone, existing.AvatarURL = user.Name, user.Phone, user.AvatarURL
	user.Email = existing.Email
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int, error) { return len(m.users), nil }

// --- categories ---

type mockCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
	products   *mockProductRepo
}

func newMockCategoryRepo(products *mockProductRepo) *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[uuid.UUID]*model.Category), products: products}
}

func (m *mockCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	return m.categories[id], nil
}

func (m *mockCategoryRepo) GetBySlug(_ context.Context, slug string) (*model.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCategoryRepo) Create(_ context.Context, c *model.Category) error {
	c.ID = uuid.New()
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *model.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepo) CountProducts(_ context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, p := range m.products.products {
		if p.CategoryID != nil && *p.CategoryID == id {
			n++
		}
	}
	return n, nil
}

func (m *mockCategoryRepo) Count(_ context.Context) (int, error) { return len(m.categories), nil }

// --- products ---

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) add(name, price string) *model.Product {
	p := &model.Product{
		ID: uuid.New(), Name: name, Slug: name, Price: decimal.RequireFromString(price),
		InventoryQuantity: 10, IsActive: true, CreatedAt: time.Now(),
	}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range m.products {
		if !f.IncludeInactive && !p.IsActive {
			continue
		}
		if f.Featured && !p.IsFeatured {
			continue
		}
		if f.OnSale && !p.OnSale() {
			continue
		}
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) AddImage(_ context.Context, img *model.ProductImage) error {
	img.ID = uuid.New()
	p := m.products[img.ProductID]
	p.Images = append(p.Images, *img)
	return nil
}

func (m *mockProductRepo) DeleteImage(_ context.Context, productID, imageID uuid.UUID) error {
	p, ok := m.products[productID]
	if !ok {
		return pgx.ErrNoRows
	}
	for i, img := range p.Images {
		if img.ID == imageID {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockProductRepo) Count(_ context.Context) (int, error) { return len(m.products), nil }

// --- cart ---

type mockCartRepo struct {
	mu       sync.Mutex
	items    []*model.CartItem
	products *mockProductRepo
}

func newMockCartRepo(products *mockProductRepo) *mockCartRepo {
	return &mockCartRepo{products: products}
}

func (m *mockCartRepo) Increment(_ context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.UserID == userID && item.ProductID == productID {
			item.Quantity++
			cp := *item
			return &cp, nil
		}
	}
	item := &model.CartItem{ID: uuid.New(), UserID: userID, ProductID: productID, Quantity: 1, CreatedAt: time.Now()}
	m.items = append(m.items, item)
	cp := *item
	return &cp, nil
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(userID), nil
}

func (m *mockCartRepo) snapshot(userID uuid.UUID) []model.CartItem {
	var out []model.CartItem
	for _, item := range m.items {
		if item.UserID != userID {
			continue
		}
		cp := *item
		if p, ok := m.products.products[item.ProductID]; ok {
			cp.Product = &model.ProductSummary{ID: p.ID, Name: p.Name, Slug: p.Slug, SKU: p.SKU, Price: p.Price}
		}
		out = append(out, cp)
	}
	return out
}

func (m *mockCartRepo) UpdateQuantity(_ context.Context, userID, itemID uuid.UUID, quantity int) (*model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == itemID && item.UserID == userID {
			item.Quantity = quantity
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, userID, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID == itemID && item.UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockCartRepo) clear(userID uuid.UUID) {
	kept := m.items[:0]
	for _, item := range m.items {
		if item.UserID != userID {
			kept = append(kept, item)
		}
	}
	m.items = kept
}

func (m *mockCartRepo) ProductIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []uuid.UUID{}
	for _, item := range m.items {
		if item.UserID == userID {
			ids = append(ids, item.ProductID)
		}
	}
	return ids, nil
}

func (m *mockCartRepo) count(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshot(userID))
}

// --- wishlist ---

type wishKey struct{ user, product uuid.UUID }

type mockWishlistRepo struct {
	rows map[wishKey]time.Time
	// afterLoad runs once ProductIDs has read the rows, before it returns.
	afterLoad func()
}

func newMockWishlistRepo() *mockWishlistRepo {
	return &mockWishlistRepo{rows: make(map[wishKey]time.Time)}
}

func (m *mockWishlistRepo) Add(_ context.Context, userID, productID uuid.UUID) error {
	k := wishKey{userID, productID}
	if _, ok := m.rows[k]; !ok {
		m.rows[k] = time.Now()
	}
	return nil
}

func (m *mockWishlistRepo) Remove(_ context.Context, userID, productID uuid.UUID) error {
	delete(m.rows, wishKey{userID, productID})
	return nil
}

func (m *mockWishlistRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	var out []model.WishlistItem
	for k, at := range m.rows {
		if k.user == userID {
			out = append(out, model.WishlistItem{ID: uuid.New(), UserID: userID, ProductID: k.product, CreatedAt: at})
		}
	}
	return out, nil
}

func (m *mockWishlistRepo) ProductIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for k := range m.rows {
		if k.user == userID {
			ids = append(ids, k.product)
		}
	}
	if hook := m.afterLoad; hook != nil {
		m.afterLoad = nil
		hook()
	}
	return ids, nil
}

// --- addresses ---

type mockAddressRepo struct {
	addresses map[uuid.UUID]*model.Address
}

func newMockAddressRepo() *mockAddressRepo {
	return &mockAddressRepo{addresses: make(map[uuid.UUID]*model.Address)}
}

func (m *mockAddressRepo) add(userID uuid.UUID) *model.Address {
	a := &model.Address{
		ID: uuid.New(), UserID: userID, Type: model.AddressTypeShipping,
		FirstName: "Ada", LastName: "Lovelace", AddressLine1: "1 Main St",
		City: "Springfield", State: "IL", PostalCode: "62701", Country: "US",
	}
	m.addresses[a.ID] = a
	return a
}

func (m *mockAddressRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Address, error) {
	var out []model.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsDefault && !out[j].IsDefault })
	return out, nil
}

func (m *mockAddressRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Address, error) {
	a, ok := m.addresses[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockAddressRepo) clearDefaults(userID uuid.UUID, t model.AddressType) {
	for _, a := range m.addresses {
		if a.UserID == userID && a.Type == t {
			a.IsDefault = false
		}
	}
}

func (m *mockAddressRepo) Create(_ context.Context, a *model.Address) error {
	if a.IsDefault {
		m.clearDefaults(a.UserID, a.Type)
	}
	a.ID = uuid.New()
	cp := *a
	m.addresses[a.ID] = &cp
	return nil
}

func (m *mockAddressRepo) SetDefault(_ context.Context, userID, id uuid.UUID) (*model.Address, error) {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	m.clearDefaults(userID, a.Type)
	a.IsDefault = true
	cp := *a
	return &cp, nil
}

func (m *mockAddressRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.addresses, id)
	return nil
}

// --- orders ---

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order
	cart   *mockCartRepo
	// failInsert simulates a storage failure after the order was built.
	failInsert error
}

func newMockOrderRepo(cart *mockCartRepo) *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order), cart: cart}
}

func (m *mockOrderRepo) Place(_ context.Context, userID uuid.UUID, build repository.OrderBuilder) (*model.Order, error) {
	m.cart.mu.Lock()
	defer m.cart.mu.Unlock()

	order, err := build(m.cart.snapshot(userID))
	if err != nil {
		return nil, err
	}
	if m.failInsert != nil {
		return nil, m.failInsert
	}
	for _, existing := range m.orders {
		if existing.OrderNumber == order.OrderNumber {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
		}
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	m.orders[order.ID] = order
	m.cart.clear(userID)
	return order, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) List(_ context.Context, f repository.OrderFilter) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range m.orders {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, *o)
		}
	}
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return pgx.ErrNoRows
	}
	o.Status = to
	return nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, from, to model.PaymentStatus) error {
	o, ok := m.orders[id]
	if !ok || o.PaymentStatus != from {
		return pgx.ErrNoRows
	}
	o.PaymentStatus = to
	return nil
}

func (m *mockOrderRepo) Count(_ context.Context) (int, error) { return len(m.orders), nil }

func (m *mockOrderRepo) Revenue(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, o := range m.orders {
		if o.Status == model.OrderStatusCompleted {
			total = total.Add(o.Total)
		}
	}
	return total, nil
}

// --- collaborators ---

type recordingPublisher struct {
	messages []model.OrderPlacedMessage
	err      error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, msg model.OrderPlacedMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

type fakeIdentityAdmin struct {
	deleted []uuid.UUID
	err     error
}

func (f *fakeIdentityAdmin) DeleteUser(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

var errStorage = errors.New("storage unavailable")

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
