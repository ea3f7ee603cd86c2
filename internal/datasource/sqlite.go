package datasource

import (
	"pagebuilder/internal/domain"

	_ "modernc.org/sqlite"
)

// newSQLiteConnector creates a connector for an external SQLite file.
// Host holds the file path.
func newSQLiteConnector(ds *domain.DataSource) (*sqlConnector, error) {
	dsn := ds.Host + "?_pragma=busy_timeout(5000)"
	return newSQLConnector("sqlite", dsn, ds.Table)
}
