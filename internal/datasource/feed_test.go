package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
)

func writeFeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func titles(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Title
	}
	return out
}

func TestFeedConnector_CSV(t *testing.T) {
	path := writeFeed(t, "products.csv", "ID,Title,Price,Image,URL,Category\n"+
		"3,Clogs,40,/img/clogs.jpg,/p/clogs,shoes\n"+
		"1,Boots,89.5,/img/boots.jpg,/p/boots,shoes\n"+
		"2,Apron,12,,/p/apron,kitchen\n")

	conn, err := NewConnector(&domain.DataSource{Driver: domain.DataSourceCSV, Host: path}, "")
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, conn.Ping(ctx))

	products, err := conn.Products(ctx, ProductQuery{Category: "shoes"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, domain.Product{ID: "1", Title: "Boots", Price: 89.5, Image: "/img/boots.jpg", URL: "/p/boots", Category: "shoes"}, products[0])
	assert.Equal(t, "Clogs", products[1].Title)

	all, err := conn.Products(ctx, ProductQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apron", "Boots"}, titles(all))
}

func TestFeedConnector_CSVDelimiter(t *testing.T) {
	path := writeFeed(t, "products.csv", "id;title;price\nA-1;Mug;7.5\n")

	conn, err := NewConnector(&domain.DataSource{Driver: domain.DataSourceCSV, Host: path, Table: ";"}, "")
	require.NoError(t, err)
	products, err := conn.Products(context.Background(), ProductQuery{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "A-1", products[0].ID)
	assert.Equal(t, 7.5, products[0].Price)

	_, err = NewConnector(&domain.DataSource{Driver: domain.DataSourceCSV, Host: path, Table: "||"}, "")
	assert.ErrorContains(t, err, "single character")
}

func TestFeedConnector_JSONFileWithDataPath(t *testing.T) {
	path := writeFeed(t, "feed.json", `{"data": {"items": [
		{"id": 7, "title": "Kettle", "price": "24.90", "category": "kitchen"},
		{"id": "x9", "title": "Apron", "price": 12, "category": "kitchen"}
	]}}`)

	conn, err := NewConnector(&domain.DataSource{Driver: domain.DataSourceJSON, Host: path, Table: "data.items"}, "")
	require.NoError(t, err)
	products, err := conn.Products(context.Background(), ProductQuery{Category: "kitchen"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "x9", products[0].ID)
	assert.Equal(t, "7", products[1].ID)
	assert.Equal(t, 24.9, products[1].Price)

	bad, err := NewConnector(&domain.DataSource{Driver: domain.DataSourceJSON, Host: path, Table: "data.items.first"}, "")
	require.NoError(t, err)
	assert.ErrorContains(t, bad.Ping(context.Background()), "invalid data path")
}

func TestFeedConnector_HTTP(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path == "/missing" {
			http.Error(w, "no such feed", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1, "title": "Boots", "price": 89.5, "category": "shoes"}]`))
	}))
	defer ts.Close()

	conn, err := NewConnector(&domain.DataSource{Driver: domain.DataSourceHTTP, Host: ts.URL + "/feed"}, "s3cret")
	require.NoError(t, err)
	defer conn.Close()

	products, err := conn.Products(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Boots"}, titles(products))
	assert.Equal(t, "Bearer s3cret", auth)

	missing, err := NewConnector(&domain.DataSource{Driver: domain.DataSourceHTTP, Host: ts.URL + "/missing"}, "")
	require.NoError(t, err)
	err = missing.Ping(context.Background())
	assert.ErrorContains(t, err, "http 404")
	assert.ErrorContains(t, err, "no such feed")
}

func TestFeedConnector_RequiresHost(t *testing.T) {
	_, err := NewConnector(&domain.DataSource{Driver: domain.DataSourceJSON}, "")
	assert.ErrorContains(t, err, "host is required")
}
