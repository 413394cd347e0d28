package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/example/animal-store/internal/catalog"
	"github.com/example/animal-store/internal/order"
)

// PostgresProductStore implements catalog.Store and order.Inventory on top of
// the products and reviews tables.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

const productColumns = `id, name, brand, category, image_url, weight, price, price_info,
	flavor, ingredients, benefits, description, stock, is_active, is_featured, tags,
	rating, num_reviews, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Category, &p.ImageURL, &p.Weight, &p.Price, &p.PriceInfo,
		&p.Flavor, pq.Array(&p.Ingredients), pq.Array(&p.Benefits), &p.Description,
		&p.Stock, &p.IsActive, &p.IsFeatured, pq.Array(&p.Tags),
		&p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresProductStore) CreateProduct(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		p.ID, p.Name, p.Brand, p.Category, p.ImageURL, p.Weight, p.Price, p.PriceInfo,
		p.Flavor, pq.Array(p.Ingredients), pq.Array(p.Benefits), p.Description,
		p.Stock, p.IsActive, p.IsFeatured, pq.Array(p.Tags),
		p.Rating, p.NumReviews, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *PostgresProductStore) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			name = $2, brand = $3, category = $4, image_url = $5, weight = $6,
			price = $7, price_info = $8, flavor = $9, ingredients = $10,
			benefits = $11, description = $12, stock = $13, is_active = $14,
			is_featured = $15, tags = $16, updated_at = $17
		WHERE id = $1`,
		p.ID, p.Name, p.Brand, p.Category, p.ImageURL, p.Weight,
		p.Price, p.PriceInfo, p.Flavor, pq.Array(p.Ingredients),
		pq.Array(p.Benefits), p.Description, p.Stock, p.IsActive,
		p.IsFeatured, pq.Array(p.Tags), p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res, catalog.ErrProductNotFound)
}

func (s *PostgresProductStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, catalog.ErrProductNotFound)
}

func (s *PostgresProductStore) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrProductNotFound
	}
	return p, err
}

// sortClauses whitelists the ORDER BY expressions exposed to clients.
var sortClauses = map[string]string{
	catalog.SortPriceAsc:  "price ASC",
	catalog.SortPriceDesc: "price DESC",
	catalog.SortNameAsc:   "name ASC",
	catalog.SortNameDesc:  "name DESC",
}

func (s *PostgresProductStore) ListProducts(ctx context.Context, filter catalog.ListFilter) (*catalog.ProductPage, error) {
	var (
		conds []string
		args  []any
	)
	addCond := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Category != "" {
		addCond("category = $%d", filter.Category)
	}
	if filter.Search != "" {
		addCond("name ILIKE '%%' || $%d || '%%'", filter.Search)
	}
	if filter.Featured != nil {
		addCond("is_featured = $%d", *filter.Featured)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	orderBy := "created_at DESC"
	if clause, ok := sortClauses[filter.Sort]; ok {
		orderBy = clause
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &catalog.ProductPage{
		Page:          filter.Page,
		Limit:         filter.Limit,
		TotalProducts: total,
		TotalPages:    (total + filter.Limit - 1) / filter.Limit,
		Products:      products,
	}, nil
}

func (s *PostgresProductStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresProductStore) FeaturedProducts(ctx context.Context) ([]*catalog.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_featured ORDER BY created_at DESC`)
}

func (s *PostgresProductStore) RelatedProducts(ctx context.Context, id, category string, limit int) ([]*catalog.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE id <> $1 AND category = $2 LIMIT $3`,
		id, category, limit)
}

func (s *PostgresProductStore) queryProducts(ctx context.Context, query string, args ...any) ([]*catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ReserveStock decrements stock with a single conditional update, so two
// concurrent reservations can never drive stock negative.
func (s *PostgresProductStore) ReserveStock(ctx context.Context, productID string, quantity int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = $3
		WHERE id = $1 AND is_active AND stock >= $2`,
		productID, quantity, time.Now(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// No row matched: tell the caller why.
	var isActive bool
	err = s.db.QueryRowContext(ctx, `SELECT is_active FROM products WHERE id = $1`, productID).Scan(&isActive)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return catalog.ErrProductNotFound
	case err != nil:
		return err
	case !isActive:
		return catalog.ErrProductInactive
	default:
		return order.ErrInsufficientStock
	}
}

// ReleaseStock returns previously reserved quantity to the product.
func (s *PostgresProductStore) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1`,
		productID, quantity, time.Now(),
	)
	if err != nil {
		return err
	}
	return requireRow(res, catalog.ErrProductNotFound)
}

// AddReview inserts the review and recomputes the rating aggregate in one
// transaction. The (product_id, user_id) unique index rejects concurrent
// duplicate submissions.
func (s *PostgresProductStore) AddReview(ctx context.Context, r *catalog.Review) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.ProductID, r.UserID, r.UserName, r.Rating, r.Comment, r.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrDuplicateReview
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products SET
			rating = (SELECT AVG(rating)::double precision FROM reviews WHERE product_id = $1),
			num_reviews = (SELECT COUNT(*) FROM reviews WHERE product_id = $1),
			updated_at = $2
		WHERE id = $1`,
		r.ProductID, r.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresProductStore) Reviews(ctx context.Context, productID string) ([]*catalog.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, user_id, user_name, rating, comment, created_at
		FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*catalog.Review
	for rows.Next() {
		var r catalog.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

func requireRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
