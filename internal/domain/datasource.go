package domain

import "time"

// DataSourceDriver represents the type of database engine behind a product feed.
type DataSourceDriver string

const (
	DataSourceMySQL    DataSourceDriver = "mysql"
	DataSourcePostgres DataSourceDriver = "postgres"
	DataSourceMongoDB  DataSourceDriver = "mongodb"
	DataSourceSQLite   DataSourceDriver = "sqlite"

	// File and HTTP product feeds.
	DataSourceCSV  DataSourceDriver = "csv"
	DataSourceJSON DataSourceDriver = "json"
	DataSourceHTTP DataSourceDriver = "http"
)

// IsFeed reports whether d reads a file or URL rather than a database.
func (d DataSourceDriver) IsFeed() bool {
	return d == DataSourceCSV || d == DataSourceJSON || d == DataSourceHTTP
}

// DataSource holds the metadata for reading products out of a shop database.
// The password is stored separately in the secret store.
type DataSource struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Driver    DataSourceDriver `json:"driver"`
	Host      string           `json:"host"`     // hostname, URI (mongodb) or file path (sqlite)
	Port      int              `json:"port"`     // 0 for sqlite
	Database  string           `json:"database"` // db name or empty for sqlite
	Username  string           `json:"username"`
	SSLMode   string           `json:"sslMode"`
	Table     string           `json:"table"` // table or collection holding products
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Product is one row of a product feed, as rendered by ProductRail blocks.
type Product struct {
	ID       string  `json:"id" bson:"id"`
	Title    string  `json:"title" bson:"title"`
	Price    float64 `json:"price" bson:"price"`
	Image    string  `json:"image" bson:"image"`
	URL      string  `json:"url" bson:"url"`
	Category string  `json:"category" bson:"category"`
}

type DataSourceStore interface {
	CreateDataSource(ds *DataSource) error
	GetDataSource(id string) (*DataSource, error)
	FindDataSourceByName(name string) (*DataSource, error)
	ListDataSources() ([]DataSource, error)
	DeleteDataSource(id string) error
}
