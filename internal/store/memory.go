package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/animal-store/internal/catalog"
	"github.com/example/animal-store/internal/order"
	"github.com/example/animal-store/internal/user"
)

// MemoryStore is a mutex-guarded in-memory implementation of catalog.Store,
// order.Store, order.Inventory and user.Store. It mirrors the Postgres
// semantics, including the atomic conditional stock decrement and the unique
// (product, user) review constraint, and backs the test suites.
type MemoryStore struct {
	mu       sync.Mutex
	products map[string]*catalog.Product
	reviews  map[string][]*catalog.Review // productID -> reviews, newest first
	orders   map[string]*order.Order
	users    map[string]*user.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*catalog.Product),
		reviews:  make(map[string][]*catalog.Review),
		orders:   make(map[string]*order.Order),
		users:    make(map[string]*user.User),
	}
}

// --- catalog.Store ---

func (m *MemoryStore) CreateProduct(ctx context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.products[p.ID] = &clone
	return nil
}

func (m *MemoryStore) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return catalog.ErrProductNotFound
	}
	clone := *p
	m.products[p.ID] = &clone
	return nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(m.products, id)
	delete(m.reviews, id)
	return nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *MemoryStore) ListProducts(ctx context.Context, filter catalog.ListFilter) (*catalog.ProductPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*catalog.Product
	for _, p := range m.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Featured != nil && p.IsFeatured != *filter.Featured {
			continue
		}
		clone := *p
		matched = append(matched, &clone)
	}

	switch filter.Sort {
	case catalog.SortPriceAsc:
		sort.Slice(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case catalog.SortPriceDesc:
		sort.Slice(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	case catalog.SortNameAsc:
		sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	case catalog.SortNameDesc:
		sort.Slice(matched, func(i, j int) bool { return matched[i].Name > matched[j].Name })
	default:
		sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	}

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return &catalog.ProductPage{
		Page:          filter.Page,
		Limit:         filter.Limit,
		TotalProducts: total,
		TotalPages:    (total + filter.Limit - 1) / filter.Limit,
		Products:      matched[start:end],
	}, nil
}

func (m *MemoryStore) Categories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var categories []string
	for _, p := range m.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *MemoryStore) FeaturedProducts(ctx context.Context) ([]*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var featured []*catalog.Product
	for _, p := range m.products {
		if p.IsFeatured {
			clone := *p
			featured = append(featured, &clone)
		}
	}
	return featured, nil
}

func (m *MemoryStore) RelatedProducts(ctx context.Context, id, category string, limit int) ([]*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var related []*catalog.Product
	for _, p := range m.products {
		if p.ID == id || p.Category != category {
			continue
		}
		clone := *p
		related = append(related, &clone)
		if len(related) == limit {
			break
		}
	}
	return related, nil
}

func (m *MemoryStore) AddReview(ctx context.Context, r *catalog.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[r.ProductID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	for _, existing := range m.reviews[r.ProductID] {
		if existing.UserID == r.UserID {
			return catalog.ErrDuplicateReview
		}
	}

	clone := *r
	m.reviews[r.ProductID] = append([]*catalog.Review{&clone}, m.reviews[r.ProductID]...)

	sum := 0
	for _, rev := range m.reviews[r.ProductID] {
		sum += rev.Rating
	}
	p.NumReviews = len(m.reviews[r.ProductID])
	p.Rating = float64(sum) / float64(p.NumReviews)
	p.UpdatedAt = r.CreatedAt
	return nil
}

func (m *MemoryStore) Reviews(ctx context.Context, productID string) ([]*catalog.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reviews := make([]*catalog.Review, 0, len(m.reviews[productID]))
	for _, r := range m.reviews[productID] {
		clone := *r
		reviews = append(reviews, &clone)
	}
	return reviews, nil
}

// --- order.Inventory ---

func (m *MemoryStore) ReserveStock(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if !p.IsActive {
		return catalog.ErrProductInactive
	}
	if p.Stock < quantity {
		return order.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (m *MemoryStore) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return catalog.ErrProductNotFound
	}
	p.Stock += quantity
	return nil
}

// --- order.Store ---

func (m *MemoryStore) CreateOrder(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *o
	clone.Items = append([]order.Item(nil), o.Items...)
	m.orders[o.ID] = &clone
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	clone := *o
	clone.Items = append([]order.Item(nil), o.Items...)
	return &clone, nil
}

func (m *MemoryStore) ListOrdersByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []*order.Order
	for _, o := range m.orders {
		if o.UserID != userID {
			continue
		}
		clone := *o
		orders = append(orders, &clone)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (m *MemoryStore) ListAllOrders(ctx context.Context) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []*order.Order
	for _, o := range m.orders {
		clone := *o
		orders = append(orders, &clone)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, status order.Status, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	return nil
}

func (m *MemoryStore) UpdateOrderShipping(ctx context.Context, id string, info order.ShippingInfo, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.ShippingInfo = info
	o.UpdatedAt = updatedAt
	return nil
}

// --- user.Store ---

func (m *MemoryStore) CreateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email || existing.Mobile == u.Mobile {
			return user.ErrUserExists
		}
	}
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *MemoryStore) GetUserByEmailOrUsername(ctx context.Context, emailOrUsername string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == emailOrUsername || u.Username == emailOrUsername {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return user.ErrUserNotFound
	}
	for _, existing := range m.users {
		if existing.ID == u.ID {
			continue
		}
		if existing.Username == u.Username || existing.Email == u.Email || existing.Mobile == u.Mobile {
			return user.ErrUserExists
		}
	}
	clone := *u
	m.users[u.ID] = &clone
	return nil
}
