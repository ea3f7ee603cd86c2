package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pagebuilder/internal/domain"
)

// sqlConnector is the shared implementation for MySQL, Postgres, and SQLite.
type sqlConnector struct {
	driverName string
	db         *sql.DB
	table      string
}

// newSQLConnector creates a generic SQL connector reading from table.
func newSQLConnector(driverName, dsn, table string) (*sqlConnector, error) {
	if table == "" {
		table = "products"
	}
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{driverName: driverName, db: db, table: table}, nil
}

func (c *sqlConnector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

// productQuery builds the SELECT for q with ? placeholders.
func (c *sqlConnector) productQuery(q ProductQuery) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	fmt.Fprintf(&b, "SELECT id, title, price, image, url, category FROM %s", c.table)
	if q.Category != "" {
		b.WriteString(" WHERE category = ?")
		args = append(args, q.Category)
	}
	b.WriteString(" ORDER BY title LIMIT ?")
	args = append(args, q.limit())

	query := b.String()
	if c.driverName == "postgres" {
		query = rebindDollar(query)
	}
	return query, args
}

// rebindDollar rewrites ? placeholders as $1, $2, ...
func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c *sqlConnector) Products(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query, args := c.productQuery(q)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var (
			id                            any
			title, image, link, category sql.NullString
			price                         sql.NullFloat64
		)
		if err := rows.Scan(&id, &title, &price, &image, &link, &category); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, domain.Product{
			ID:       formatID(id),
			Title:    title.String,
			Price:    price.Float64,
			Image:    image.String,
			URL:      link.String,
			Category: category.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// formatID renders a scanned primary key of any column type as a string.
func formatID(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}
