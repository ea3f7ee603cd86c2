package datasource

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"pagebuilder/internal/domain"
)

// ── Feed connector ─────────────────────────────────────────
// Reads products from a CSV file, a JSON file or a JSON document served
// over HTTP. Host holds the path or URL. For JSON feeds Table is the
// dot-separated path to the product array ("" when the document is the
// array); for CSV feeds it is the column delimiter.

type feedConnector struct {
	driver domain.DataSourceDriver
	source string
	table  string
	token  string
	client *http.Client
}

func newFeedConnector(ds *domain.DataSource, password string) (*feedConnector, error) {
	if ds.Host == "" {
		return nil, fmt.Errorf("%s feed: host is required", ds.Driver)
	}
	if ds.Driver == domain.DataSourceCSV && utf8.RuneCountInString(ds.Table) > 1 {
		return nil, fmt.Errorf("csv feed: delimiter must be a single character, got %q", ds.Table)
	}
	return &feedConnector{
		driver: ds.Driver,
		source: ds.Host,
		table:  ds.Table,
		token:  password,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *feedConnector) Ping(ctx context.Context) error {
	_, err := c.records(ctx)
	return err
}

func (c *feedConnector) Products(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	records, err := c.records(ctx)
	if err != nil {
		return nil, err
	}
	products := []domain.Product{}
	for _, rec := range records {
		p := productFromRecord(rec)
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		products = append(products, p)
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].Title < products[j].Title })
	if n := q.limit(); len(products) > n {
		products = products[:n]
	}
	return products, nil
}

func (c *feedConnector) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *feedConnector) records(ctx context.Context) ([]map[string]any, error) {
	switch c.driver {
	case domain.DataSourceCSV:
		f, err := os.Open(c.source)
		if err != nil {
			return nil, fmt.Errorf("open feed: %w", err)
		}
		defer f.Close()
		return readCSV(f, c.table)
	case domain.DataSourceJSON:
		data, err := os.ReadFile(c.source)
		if err != nil {
			return nil, fmt.Errorf("read feed: %w", err)
		}
		return decodeJSONFeed(data, c.table)
	case domain.DataSourceHTTP:
		data, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		return decodeJSONFeed(data, c.table)
	default:
		return nil, fmt.Errorf("unsupported feed: %s", c.driver)
	}
}

func (c *feedConnector) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// readCSV reads a CSV whose first row names the columns.
func readCSV(r io.Reader, delim string) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	if delim != "" {
		reader.Comma, _ = utf8.DecodeRuneInString(delim)
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv feed")
	}
	headers := rows[0]
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	out := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]any, len(headers))
		for j, h := range headers {
			if j < len(row) {
				rec[h] = inferValue(row[j])
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// inferValue parses numeric cells so prices compare as numbers.
func inferValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func decodeJSONFeed(data []byte, path string) ([]map[string]any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if path != "" {
		for _, part := range strings.Split(path, ".") {
			m, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid data path: %q not found", part)
			}
			raw = m[part]
		}
	}
	switch v := raw.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, nil
	case map[string]any:
		return []map[string]any{v}, nil
	default:
		return nil, fmt.Errorf("feed holds no product list at %q", path)
	}
}

func productFromRecord(rec map[string]any) domain.Product {
	str := func(key string) string {
		switch v := rec[key].(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			return formatID(v)
		}
	}
	var price float64
	switch v := rec["price"].(type) {
	case float64:
		price = v
	case string:
		price, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return domain.Product{
		ID:       str("id"),
		Title:    str("title"),
		Price:    price,
		Image:    str("image"),
		URL:      str("url"),
		Category: str("category"),
	}
}
