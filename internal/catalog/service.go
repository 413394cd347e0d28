package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/example/animal-store/internal/events"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductInactive = errors.New("product is not available for purchase")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidStock    = errors.New("stock must not be negative")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrDuplicateReview = errors.New("user already reviewed this product")
)

const (
	defaultPageLimit = 15
	relatedLimit     = 5
)

// Store is the persistence contract the catalog service needs.
type Store interface {
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, filter ListFilter) (*ProductPage, error)
	Categories(ctx context.Context) ([]string, error)
	FeaturedProducts(ctx context.Context) ([]*Product, error)
	RelatedProducts(ctx context.Context, id, category string, limit int) ([]*Product, error)

	// AddReview persists the review and recomputes the product's rating
	// aggregate in the same transaction. Returns ErrDuplicateReview when the
	// user already reviewed the product.
	AddReview(ctx context.Context, r *Review) error
	Reviews(ctx context.Context, productID string) ([]*Review, error)
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"image_url"`
	Weight      string   `json:"weight"`
	Price       int      `json:"price" validate:"gte=0"`
	PriceInfo   string   `json:"price_info"`
	Flavor      string   `json:"flavor"`
	Ingredients []string `json:"ingredients"`
	Benefits    []string `json:"benefits"`
	Description string   `json:"description"`
	Stock       int      `json:"stock" validate:"gte=0"`
	IsActive    *bool    `json:"is_active"`
	IsFeatured  bool     `json:"is_featured"`
	Tags        []string `json:"tags"`
}

var validate = validator.New()

// Service implements catalog operations: product administration, the public
// catalog query, and review aggregation.
type Service struct {
	store     Store
	publisher events.Publisher
}

func NewService(store Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{store: store, publisher: publisher}
}

func (s *Service) validateInput(in ProductInput) error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Name":
				return ErrInvalidName
			case "Price":
				return ErrInvalidPrice
			case "Stock":
				return ErrInvalidStock
			}
		}
		return err
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*Product, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	now := time.Now()
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	p := &Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Brand:       in.Brand,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Weight:      in.Weight,
		Price:       in.Price,
		PriceInfo:   in.PriceInfo,
		Flavor:      in.Flavor,
		Ingredients: in.Ingredients,
		Benefits:    in.Benefits,
		Description: in.Description,
		Stock:       in.Stock,
		IsActive:    isActive,
		IsFeatured:  in.IsFeatured,
		Tags:        in.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*Product, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Brand = in.Brand
	p.Category = in.Category
	p.ImageURL = in.ImageURL
	p.Weight = in.Weight
	p.Price = in.Price
	p.PriceInfo = in.PriceInfo
	p.Flavor = in.Flavor
	p.Ingredients = in.Ingredients
	p.Benefits = in.Benefits
	p.Description = in.Description
	p.Stock = in.Stock
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.IsFeatured = in.IsFeatured
	p.Tags = in.Tags
	p.UpdatedAt = time.Now()

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteProduct(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.store.GetProduct(ctx, id)
}

// List returns a filtered, sorted, paginated catalog page.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	return s.store.ListProducts(ctx, filter)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

func (s *Service) Featured(ctx context.Context) ([]*Product, error) {
	return s.store.FeaturedProducts(ctx)
}

// Related returns up to five other products in the same category.
func (s *Service) Related(ctx context.Context, id string) ([]*Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.RelatedProducts(ctx, p.ID, p.Category, relatedLimit)
}

// AddReview appends a review and recomputes the product's rating aggregate.
// At most one review per (product, user); the store enforces this so two
// concurrent submissions cannot both commit.
func (s *Service) AddReview(ctx context.Context, productID, userID, userName string, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	r := &Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		UserName:  userName,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	if err := s.store.AddReview(ctx, r); err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}

	s.publish(ctx, events.TypeReviewAdded, productID, events.ReviewAdded{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		AddedAt:   r.CreatedAt,
	})

	return r, nil
}

func (s *Service) Reviews(ctx context.Context, productID string) ([]*Review, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.store.Reviews(ctx, productID)
}

// publish is best-effort; the event feed must not fail catalog operations.
func (s *Service) publish(ctx context.Context, eventType, aggregateID string, payload any) {
	event, err := events.New(eventType, aggregateID, payload)
	if err != nil {
		log.Printf("[Catalog] Failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[Catalog] Failed to publish %s event: %v", eventType, err)
	}
}
