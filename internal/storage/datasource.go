package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"pagebuilder/internal/domain"
)

// DataSourceStore manages product data source records in SQLite.
type DataSourceStore struct {
	db *DB
}

// NewDataSourceStore creates a new DataSourceStore.
func NewDataSourceStore(db *DB) *DataSourceStore {
	return &DataSourceStore{db: db}
}

const dataSourceColumns = `id, name, driver, host, port, database_name, username, ssl_mode, table_name, created_at, updated_at`

func scanDataSource(row interface{ Scan(...any) error }) (*domain.DataSource, error) {
	ds := &domain.DataSource{}
	err := row.Scan(&ds.ID, &ds.Name, &ds.Driver, &ds.Host, &ds.Port, &ds.Database,
		&ds.Username, &ds.SSLMode, &ds.Table, &ds.CreatedAt, &ds.UpdatedAt)
	return ds, err
}

func (s *DataSourceStore) CreateDataSource(ds *domain.DataSource) error {
	now := timestamp()
	ds.CreatedAt = now
	ds.UpdatedAt = now
	if ds.SSLMode == "" {
		ds.SSLMode = "disable"
	}
	if ds.Table == "" && !ds.Driver.IsFeed() {
		ds.Table = "products"
	}

	_, err := s.db.Conn().Exec(
		`INSERT INTO data_sources (`+dataSourceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.Driver, ds.Host, ds.Port, ds.Database, ds.Username, ds.SSLMode, ds.Table, ds.CreatedAt, ds.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create data source: %w", err)
	}
	return nil
}

func (s *DataSourceStore) GetDataSource(id string) (*domain.DataSource, error) {
	return s.getBy("id", id)
}

func (s *DataSourceStore) FindDataSourceByName(name string) (*domain.DataSource, error) {
	return s.getBy("name", name)
}

func (s *DataSourceStore) getBy(column, value string) (*domain.DataSource, error) {
	ds, err := scanDataSource(s.db.Conn().QueryRow(
		`SELECT `+dataSourceColumns+` FROM data_sources WHERE `+column+` = ?`, value,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("data source %s: %w", value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get data source: %w", err)
	}
	return ds, nil
}

func (s *DataSourceStore) ListDataSources() ([]domain.DataSource, error) {
	rows, err := s.db.Conn().Query(`SELECT ` + dataSourceColumns + ` FROM data_sources ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DataSource
	for rows.Next() {
		ds, err := scanDataSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ds)
	}
	return out, rows.Err()
}

func (s *DataSourceStore) DeleteDataSource(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM data_sources WHERE id = ?`, id)
	return err
}
