package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/mwhitby/alcove/internal/model"
)

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func scanProduct(scanner interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceCents,
		&p.Currency, &p.ImageKey, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const productCols = `id, name, slug, description, price_cents, currency, image_key, active, created_at, updated_at`

func (s *ProductStore) Create(name, slug, description string, priceCents int64, currency string) (*model.Product, error) {
	if currency == "" {
		currency = "usd"
	}
	result, err := s.db.Exec(
		`INSERT INTO products (name, slug, description, price_cents, currency) VALUES (?, ?, ?, ?, ?)`,
		name, slug, description, priceCents, currency,
	)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProductStore) GetByID(id int64) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) GetBySlug(slug string) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM products WHERE slug = ?`, slug)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return p, nil
}

// List returns all products, newest first. Set activeOnly for storefront
// pages; admin pages list everything.
func (s *ProductStore) List(activeOnly bool) ([]model.Product, error) {
	query := `SELECT ` + productCols + ` FROM products ORDER BY created_at DESC, id DESC`
	if activeOnly {
		query = `SELECT ` + productCols + ` FROM products WHERE active = 1 ORDER BY created_at DESC, id DESC`
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *ProductStore) Update(id int64, name, slug, description string, priceCents int64, currency string, active bool) (*model.Product, error) {
	_, err := s.db.Exec(
		`UPDATE products SET name = ?, slug = ?, description = ?, price_cents = ?, currency = ?, active = ?, updated_at = datetime('now') WHERE id = ?`,
		name, slug, description, priceCents, currency, active, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProductStore) SetImageKey(id int64, imageKey string) error {
	_, err := s.db.Exec(
		`UPDATE products SET image_key = ?, updated_at = datetime('now') WHERE id = ?`,
		imageKey, id,
	)
	if err != nil {
		return fmt.Errorf("set product image key: %w", err)
	}
	return nil
}

func (s *ProductStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// Search runs a LIKE query over name and description of active products.
// When that finds nothing it falls back to an in-process regex scan, which
// catches queries the LIKE pattern is too literal for (multiple words in
// any order, regex metacharacters aside).
func (s *ProductStore) Search(query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(true)
	}

	pattern := "%" + query + "%"
	rows, err := s.db.Query(
		`SELECT `+productCols+` FROM products WHERE active = 1 AND (name LIKE ? OR description LIKE ?) ORDER BY name`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(products) > 0 {
		return products, nil
	}
	return s.regexFallback(query)
}

func (s *ProductStore) regexFallback(query string) ([]model.Product, error) {
	words := strings.Fields(query)
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(parts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile search pattern: %w", err)
	}

	all, err := s.List(true)
	if err != nil {
		return nil, err
	}

	var matched []model.Product
	for _, p := range all {
		if re.MatchString(p.Name) || re.MatchString(p.Description) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}
