package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("product not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

const productColumns = `id, slug, name, description, price, original_price, discount_pct,
stock, min_stock, is_active, category, subcategory, nutrition, images, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	var images []byte
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.Price, &p.OriginalPrice,
		&p.DiscountPct, &p.Stock, &p.MinStock, &p.IsActive, &p.Category, &p.Subcategory,
		&p.Nutrition, &images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return Product{}, fmt.Errorf("decoding images: %w", err)
	}
	return p, nil
}

func (c *Conf) InsertProduct(ctx context.Context, np NewProduct) (Product, error) {
	nutrition := np.Nutrition
	if len(nutrition) == 0 {
		nutrition = json.RawMessage(`{}`)
	}
	images, err := json.Marshal(np.Images)
	if err != nil {
		return Product{}, fmt.Errorf("encoding images: %w", err)
	}

	query := `
		INSERT INTO products (id, slug, name, description, price, original_price, discount_pct,
		                      stock, min_stock, is_active, category, subcategory, nutrition, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $11, $12, $13)
		RETURNING ` + productColumns
	row := c.db.QueryRowContext(ctx, query, uuid.NewString(), np.Slug, np.Name, np.Description,
		np.Price, np.OriginalPrice, np.DiscountPct, np.Stock, np.MinStock,
		np.Category, np.Subcategory, nutrition, images)

	p, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (c *Conf) GetProductByID(ctx context.Context, id string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(c.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (c *Conf) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	p, err := scanProduct(c.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// sortColumns whitelists the sortable columns so user input never reaches
// the ORDER BY clause directly.
var sortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"created_at": "created_at",
}

// ListCategories returns the seeded navigation entries in display order.
func (c *Conf) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT slug, name FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var list []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.Slug, &cat.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		list = append(list, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return list, nil
}

func (c *Conf) ListProductsFromDB(ctx context.Context, nameFilter, categoryFilter string,
	limit, offset int, sort, order string) ([]Product, error) {

	sortCol, ok := sortColumns[sort]
	if !ok {
		sortCol = "name"
	}
	dir := "ASC"
	if order == "desc" {
		dir = "DESC"
	}

	query := `SELECT ` + productColumns + ` FROM products
		WHERE is_active = TRUE
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		ORDER BY ` + sortCol + ` ` + dir + `
		LIMIT $3 OFFSET $4`

	rows, err := c.db.QueryContext(ctx, query, nameFilter, categoryFilter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var list []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return list, nil
}

func (c *Conf) UpdateProductInDB(ctx context.Context, id string, p Product) (Product, error) {
	nutrition := p.Nutrition
	if len(nutrition) == 0 {
		nutrition = json.RawMessage(`{}`)
	}
	images, err := json.Marshal(p.Images)
	if err != nil {
		return Product{}, fmt.Errorf("encoding images: %w", err)
	}

	query := `
		UPDATE products
		SET slug = $2, name = $3, description = $4, price = $5, original_price = $6,
		    discount_pct = $7, stock = $8, min_stock = $9, is_active = $10,
		    category = $11, subcategory = $12, nutrition = $13, images = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns
	row := c.db.QueryRowContext(ctx, query, id, p.Slug, p.Name, p.Description, p.Price,
		p.OriginalPrice, p.DiscountPct, p.Stock, p.MinStock, p.IsActive,
		p.Category, p.Subcategory, nutrition, images)

	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// DeleteProductFromDB deactivates rather than removes: order items keep
// referencing the product id for history.
func (c *Conf) DeleteProductFromDB(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStock sets the absolute stock level and reports whether the product
// is now at or below its reorder threshold.
func (c *Conf) AdjustStock(ctx context.Context, id string, stock int) (Product, error) {
	if stock < 0 {
		return Product{}, fmt.Errorf("stock must not be negative, got %d", stock)
	}
	query := `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + productColumns
	p, err := scanProduct(c.db.QueryRowContext(ctx, query, id, stock))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("failed to adjust stock: %w", err)
	}
	return p, nil
}

// ListLowStock returns active products at or below their reorder threshold.
func (c *Conf) ListLowStock(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE is_active = TRUE AND stock <= min_stock
		ORDER BY stock ASC`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	defer rows.Close()

	var list []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return list, nil
}

// GetStock returns current stock and active flag for a product, for the
// public stock endpoint.
func (c *Conf) GetStock(ctx context.Context, id string) (stock int, active bool, err error) {
	err = c.db.QueryRowContext(ctx, `SELECT stock, is_active FROM products WHERE id = $1`, id).
		Scan(&stock, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, ErrNotFound
		}
		return 0, false, fmt.Errorf("failed to query stock: %w", err)
	}
	return stock, active, nil
}
