// Package datasource reads product feeds for ProductRail blocks out of
// external shop databases.
package datasource

import (
	"context"
	"fmt"
	"regexp"

	"pagebuilder/internal/domain"
)

// DefaultLimit is used when a query asks for no limit.
const DefaultLimit = 8

// MaxLimit caps how many products a single query may return.
const MaxLimit = 200

// ProductQuery selects products from a feed.
type ProductQuery struct {
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (q ProductQuery) limit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}

// Connector abstracts reading products from an external database.
type Connector interface {
	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Products returns up to q.Limit products ordered by title.
	Products(ctx context.Context, q ProductQuery) ([]domain.Product, error)

	// Close releases the connection.
	Close() error
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether s is safe to splice into SQL as a table
// name, optionally schema-qualified.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// NewConnector creates a Connector for the given data source.
// The password must be provided separately (from the secret store).
func NewConnector(ds *domain.DataSource, password string) (Connector, error) {
	switch ds.Driver {
	case domain.DataSourceSQLite:
		return newSQLiteConnector(ds)
	case domain.DataSourceMySQL:
		return newSQLConnector("mysql", buildMySQLDSN(ds, password), ds.Table)
	case domain.DataSourcePostgres:
		return newSQLConnector("postgres", buildPostgresDSN(ds, password), ds.Table)
	case domain.DataSourceMongoDB:
		return newMongoConnector(ds, password)
	case domain.DataSourceCSV, domain.DataSourceJSON, domain.DataSourceHTTP:
		return newFeedConnector(ds, password)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", ds.Driver)
	}
}
