package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagebuilder/internal/datasource"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Data Source Service — product feeds for ProductRail blocks
// ─────────────────────────────────────────────────────────────

// ConnectFunc opens a product feed connector.
type ConnectFunc func(ds *domain.DataSource, password string) (datasource.Connector, error)

// DataSourceService registers external product databases and reads
// products from them. Passwords live in the secret store, never in SQLite.
type DataSourceService struct {
	store   domain.DataSourceStore
	secrets secret.SecretStore
	connect ConnectFunc
	logger  *zap.Logger
}

func NewDataSourceService(store domain.DataSourceStore, secrets secret.SecretStore, logger *zap.Logger) *DataSourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataSourceService{
		store:   store,
		secrets: secrets,
		connect: datasource.NewConnector,
		logger:  logger.Named("datasource"),
	}
}

// WithConnector replaces the connector factory.
func (s *DataSourceService) WithConnector(fn ConnectFunc) *DataSourceService {
	s.connect = fn
	return s
}

// AddDataSourceInput describes a new data source.
type AddDataSourceInput struct {
	Name     string                  `json:"name"`
	Driver   domain.DataSourceDriver `json:"driver"`
	Host     string                  `json:"host"`
	Port     int                     `json:"port"`
	Database string                  `json:"database"`
	Username string                  `json:"username"`
	Password string                  `json:"password"`
	SSLMode  string                  `json:"sslMode"`
	Table    string                  `json:"table"`
}

func (in AddDataSourceInput) validate() error {
	var errs []error
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	switch in.Driver {
	case domain.DataSourceMySQL, domain.DataSourcePostgres, domain.DataSourceMongoDB, domain.DataSourceSQLite,
		domain.DataSourceCSV, domain.DataSourceJSON, domain.DataSourceHTTP:
	default:
		errs = append(errs, fmt.Errorf("unsupported driver %q", in.Driver))
	}
	if in.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if in.Table != "" && in.Driver != domain.DataSourceMongoDB && !in.Driver.IsFeed() && !datasource.ValidIdentifier(in.Table) {
		errs = append(errs, fmt.Errorf("invalid table name %q", in.Table))
	}
	return errors.Join(errs...)
}

// Add registers a data source and stores its password.
func (s *DataSourceService) Add(in AddDataSourceInput) (*domain.DataSource, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Table == "" && !in.Driver.IsFeed() {
		in.Table = "products"
	}
	ds := &domain.DataSource{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Driver:   in.Driver,
		Host:     in.Host,
		Port:     in.Port,
		Database: in.Database,
		Username: in.Username,
		SSLMode:  in.SSLMode,
		Table:    in.Table,
	}
	if err := s.store.CreateDataSource(ds); err != nil {
		return nil, err
	}
	if in.Password != "" {
		if err := s.secrets.Set(secret.DataSourceKey(ds.ID), []byte(in.Password)); err != nil {
			_ = s.store.DeleteDataSource(ds.ID)
			return nil, fmt.Errorf("store password: %w", err)
		}
	}
	s.logger.Info("data source added", zap.String("name", ds.Name), zap.String("driver", string(ds.Driver)))
	return ds, nil
}

// List returns every registered data source.
func (s *DataSourceService) List() ([]domain.DataSource, error) {
	return s.store.ListDataSources()
}

// Get resolves a data source by name, then by id.
func (s *DataSourceService) Get(ref string) (*domain.DataSource, error) {
	ds, err := s.store.FindDataSourceByName(ref)
	if err == nil {
		return ds, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return s.store.GetDataSource(ref)
}

// Remove deletes a data source and its password.
func (s *DataSourceService) Remove(ref string) error {
	ds, err := s.Get(ref)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDataSource(ds.ID); err != nil {
		return err
	}
	return s.secrets.Delete(secret.DataSourceKey(ds.ID))
}

func (s *DataSourceService) open(ref string) (datasource.Connector, *domain.DataSource, error) {
	ds, err := s.Get(ref)
	if err != nil {
		return nil, nil, err
	}
	pw, err := s.secrets.Get(secret.DataSourceKey(ds.ID))
	if err != nil {
		return nil, nil, fmt.Errorf("read password: %w", err)
	}
	conn, err := s.connect(ds, string(pw))
	if err != nil {
		return nil, nil, err
	}
	return conn, ds, nil
}

// Test pings a data source.
func (s *DataSourceService) Test(ctx context.Context, ref string) error {
	conn, _, err := s.open(ref)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Ping(ctx)
}

// Preview reads products the way a ProductRail block bound to ref would.
func (s *DataSourceService) Preview(ctx context.Context, ref string, q datasource.ProductQuery) ([]domain.Product, error) {
	conn, ds, err := s.open(ref)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	start := time.Now()
	products, err := conn.Products(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", ds.Name, err)
	}
	s.logger.Debug("products fetched",
		zap.String("source", ds.Name),
		zap.Int("count", len(products)),
		zap.Duration("took", time.Since(start)))
	return products, nil
}

// RailQuery maps ProductRail props onto a product query.
func RailQuery(props map[string]any) (source string, q datasource.ProductQuery) {
	source, _ = props["source"].(string)
	q.Category, _ = props["category"].(string)
	switch n := props["limit"].(type) {
	case int:
		q.Limit = n
	case float64:
		q.Limit = int(n)
	}
	return source, q
}
