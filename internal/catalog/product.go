package catalog

import "time"

// Product is a catalog entry. Price is in cents.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand,omitempty"`
	Category     string    `json:"category,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Weight       string    `json:"weight,omitempty"`
	Price        int       `json:"price"`
	PriceInfo    string    `json:"price_info,omitempty"`
	Flavor       string    `json:"flavor,omitempty"`
	Ingredients  []string  `json:"ingredients,omitempty"`
	Benefits     []string  `json:"benefits,omitempty"`
	Description  string    `json:"description,omitempty"`
	Stock        int       `json:"stock"`
	IsActive     bool      `json:"is_active"`
	IsFeatured   bool      `json:"is_featured"`
	Tags         []string  `json:"tags,omitempty"`
	Rating       float64   `json:"rating"`
	NumReviews   int       `json:"num_reviews"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Review is a single user review of a product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Sort orders accepted by List.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
)

// ListFilter selects and orders a page of the catalog.
type ListFilter struct {
	Category string
	Search   string // case-insensitive substring match on name
	Featured *bool
	Sort     string
	Page     int
	Limit    int
}

// Offset returns the row offset for the requested page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ProductPage is one page of catalog results plus pagination totals.
type ProductPage struct {
	Page          int        `json:"page"`
	Limit         int        `json:"limit"`
	TotalProducts int        `json:"total_products"`
	TotalPages    int        `json:"total_pages"`
	Products      []*Product `json:"products"`
}
