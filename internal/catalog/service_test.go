package catalog_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/animal-store/internal/catalog"
	"github.com/example/animal-store/internal/events"
	"github.com/example/animal-store/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func newTestService(t *testing.T) (*catalog.Service, *store.MemoryStore, *recordingPublisher) {
	t.Helper()
	mem := store.NewMemoryStore()
	publisher := &recordingPublisher{}
	return catalog.NewService(mem, publisher), mem, publisher
}

func createProduct(t *testing.T, svc *catalog.Service, in catalog.ProductInput) *catalog.Product {
	t.Helper()
	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return p
}

// ============================================
// Create / Update / Delete Tests
// ============================================

func TestService_Create_Success(t *testing.T) {
	svc, _, _ := newTestService(t)

	p := createProduct(t, svc, catalog.ProductInput{
		Name:     "Chicken Kibble",
		Brand:    "Pawsome",
		Category: "Dog Food",
		Price:    349900,
		Stock:    50,
		Tags:     []string{"dog", "dry-food"},
	})

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Chicken Kibble", p.Name)
	assert.Equal(t, 349900, p.Price)
	assert.Equal(t, 50, p.Stock)
	assert.True(t, p.IsActive, "products default to active")
	assert.Zero(t, p.Rating)
	assert.Zero(t, p.NumReviews)
}

func TestService_Create_Inactive(t *testing.T) {
	svc, _, _ := newTestService(t)

	inactive := false
	p := createProduct(t, svc, catalog.ProductInput{
		Name:     "Seasonal Treats",
		Price:    9900,
		IsActive: &inactive,
	})

	assert.False(t, p.IsActive)
}

func TestService_Create_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   catalog.ProductInput
		wantErr error
	}{
		{"missing name", catalog.ProductInput{Price: 100}, catalog.ErrInvalidName},
		{"negative price", catalog.ProductInput{Name: "X", Price: -1}, catalog.ErrInvalidPrice},
		{"negative stock", catalog.ProductInput{Name: "X", Price: 100, Stock: -5}, catalog.ErrInvalidStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Create(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, p)
		})
	}
}

func TestService_Update_Success(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 349900, Stock: 10})

	updated, err := svc.Update(ctx, p.ID, catalog.ProductInput{
		Name:  "Chicken Kibble XXL",
		Price: 449900,
		Stock: 25,
	})

	require.NoError(t, err)
	assert.Equal(t, "Chicken Kibble XXL", updated.Name)
	assert.Equal(t, 449900, updated.Price)
	assert.Equal(t, 25, updated.Stock)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt) || updated.UpdatedAt.Equal(p.UpdatedAt))
}

func TestService_Update_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	p, err := svc.Update(context.Background(), "no-such-product", catalog.ProductInput{Name: "X", Price: 100})

	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.Nil(t, p)
}

func TestService_Delete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 349900})

	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err := svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), catalog.ErrProductNotFound)
}

// ============================================
// List Tests
// ============================================

func TestService_List_FiltersByCategory(t *testing.T) {
	svc, _, _ := newTestService(t)

	createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Category: "Dog Food", Price: 100})
	createProduct(t, svc, catalog.ProductInput{Name: "Ocean Fish", Category: "Cat Food", Price: 200})
	createProduct(t, svc, catalog.ProductInput{Name: "Lamb Puppy Food", Category: "Dog Food", Price: 300})

	page, err := svc.List(context.Background(), catalog.ListFilter{Category: "Dog Food"})
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalProducts)
	for _, p := range page.Products {
		assert.Equal(t, "Dog Food", p.Category)
	}
}

func TestService_List_SearchIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService(t)

	createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 100})
	createProduct(t, svc, catalog.ProductInput{Name: "Dental Sticks", Price: 200})

	page, err := svc.List(context.Background(), catalog.ListFilter{Search: "chicken"})
	require.NoError(t, err)

	require.Equal(t, 1, page.TotalProducts)
	assert.Equal(t, "Chicken Kibble", page.Products[0].Name)
}

func TestService_List_FiltersByFeatured(t *testing.T) {
	svc, _, _ := newTestService(t)

	createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 100, IsFeatured: true})
	createProduct(t, svc, catalog.ProductInput{Name: "Dental Sticks", Price: 200})

	featured := true
	page, err := svc.List(context.Background(), catalog.ListFilter{Featured: &featured})
	require.NoError(t, err)

	require.Equal(t, 1, page.TotalProducts)
	assert.True(t, page.Products[0].IsFeatured)
}

func TestService_List_SortsByPrice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	createProduct(t, svc, catalog.ProductInput{Name: "Mid", Price: 200})
	createProduct(t, svc, catalog.ProductInput{Name: "Cheap", Price: 100})
	createProduct(t, svc, catalog.ProductInput{Name: "Pricey", Price: 300})

	page, err := svc.List(ctx, catalog.ListFilter{Sort: catalog.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, page.Products, 3)
	assert.Equal(t, "Cheap", page.Products[0].Name)
	assert.Equal(t, "Pricey", page.Products[2].Name)

	page, err = svc.List(ctx, catalog.ListFilter{Sort: catalog.SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, "Pricey", page.Products[0].Name)
}

func TestService_List_Pagination(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		createProduct(t, svc, catalog.ProductInput{
			Name:  fmt.Sprintf("Product %02d", i),
			Price: 100 * (i + 1),
		})
	}

	page, err := svc.List(ctx, catalog.ListFilter{Page: 1, Limit: 5, Sort: catalog.SortNameAsc})
	require.NoError(t, err)
	assert.Equal(t, 12, page.TotalProducts)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Products, 5)
	assert.Equal(t, "Product 00", page.Products[0].Name)

	page, err = svc.List(ctx, catalog.ListFilter{Page: 3, Limit: 5, Sort: catalog.SortNameAsc})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Product 10", page.Products[0].Name)

	// A page past the end is empty, not an error
	page, err = svc.List(ctx, catalog.ListFilter{Page: 9, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, 12, page.TotalProducts)
}

func TestService_List_DefaultsPageAndLimit(t *testing.T) {
	svc, _, _ := newTestService(t)

	createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 100})

	page, err := svc.List(context.Background(), catalog.ListFilter{Page: -3, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 15, page.Limit)
}

// ============================================
// Categories / Featured / Related Tests
// ============================================

func TestService_Categories(t *testing.T) {
	svc, _, _ := newTestService(t)

	createProduct(t, svc, catalog.ProductInput{Name: "A", Category: "Dog Food", Price: 100})
	createProduct(t, svc, catalog.ProductInput{Name: "B", Category: "Cat Food", Price: 100})
	createProduct(t, svc, catalog.ProductInput{Name: "C", Category: "Dog Food", Price: 100})
	createProduct(t, svc, catalog.ProductInput{Name: "D", Price: 100}) // no category

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Cat Food", "Dog Food"}, categories)
}

func TestService_Featured(t *testing.T) {
	svc, _, _ := newTestService(t)

	createProduct(t, svc, catalog.ProductInput{Name: "A", Price: 100, IsFeatured: true})
	createProduct(t, svc, catalog.ProductInput{Name: "B", Price: 100})

	featured, err := svc.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "A", featured[0].Name)
}

func TestService_Related(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	target := createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Category: "Dog Food", Price: 100})
	for i := 0; i < 7; i++ {
		createProduct(t, svc, catalog.ProductInput{
			Name:     fmt.Sprintf("Dog Food %d", i),
			Category: "Dog Food",
			Price:    100,
		})
	}
	createProduct(t, svc, catalog.ProductInput{Name: "Ocean Fish", Category: "Cat Food", Price: 100})

	related, err := svc.Related(ctx, target.ID)
	require.NoError(t, err)

	assert.Len(t, related, 5, "related products are capped at five")
	for _, p := range related {
		assert.NotEqual(t, target.ID, p.ID)
		assert.Equal(t, "Dog Food", p.Category)
	}
}

func TestService_Related_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	related, err := svc.Related(context.Background(), "no-such-product")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.Nil(t, related)
}

// ============================================
// Review Tests
// ============================================

func TestService_AddReview_AggregatesRating(t *testing.T) {
	svc, _, publisher := newTestService(t)
	ctx := context.Background()

	p := createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 100})

	_, err := svc.AddReview(ctx, p.ID, "user-1", "buddy", 5, "my dog loves it")
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, p.ID, "user-2", "whiskers", 2, "not for cats")
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumReviews)
	assert.InDelta(t, 3.5, got.Rating, 0.001)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Len(t, publisher.events, 2)
	assert.Equal(t, events.TypeReviewAdded, publisher.events[0].Type)
}

func TestService_AddReview_InvalidRating(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 100})

	for _, rating := range []int{0, -1, 6} {
		r, err := svc.AddReview(ctx, p.ID, "user-1", "buddy", rating, "")
		assert.ErrorIs(t, err, catalog.ErrInvalidRating)
		assert.Nil(t, r)
	}
}

func TestService_AddReview_UnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	r, err := svc.AddReview(context.Background(), "no-such-product", "user-1", "buddy", 4, "")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.Nil(t, r)
}

func TestService_AddReview_DuplicateKeepsAggregate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 100})

	_, err := svc.AddReview(ctx, p.ID, "user-1", "buddy", 4, "good")
	require.NoError(t, err)

	// A second review from the same user is rejected
	r, err := svc.AddReview(ctx, p.ID, "user-1", "buddy", 1, "changed my mind")
	assert.ErrorIs(t, err, catalog.ErrDuplicateReview)
	assert.Nil(t, r)

	// The aggregate still reflects only the first review
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumReviews)
	assert.InDelta(t, 4.0, got.Rating, 0.001)
}

func TestService_Reviews(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createProduct(t, svc, catalog.ProductInput{Name: "Chicken Kibble", Price: 100})

	_, err := svc.AddReview(ctx, p.ID, "user-1", "buddy", 5, "great")
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, p.ID, "user-2", "whiskers", 3, "fine")
	require.NoError(t, err)

	reviews, err := svc.Reviews(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestService_Reviews_UnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	reviews, err := svc.Reviews(context.Background(), "no-such-product")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.Nil(t, reviews)
}
