package datasource

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"pagebuilder/internal/domain"
)

// mongoConnector implements Connector for MongoDB. Products live in the
// collection named by the data source's table.
type mongoConnector struct {
	client     *mongo.Client
	dbName     string
	collection string
}

// buildMongoURI returns the connection URI and database name for ds.
func buildMongoURI(ds *domain.DataSource, password string) (uri, dbName string) {
	// A full connection string (Atlas mongodb+srv:// or mongodb://) is used
	// as is, after filling the password placeholder.
	if strings.HasPrefix(ds.Host, "mongodb+srv://") || strings.HasPrefix(ds.Host, "mongodb://") {
		uri = ds.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
	} else {
		port := ds.Port
		if port == 0 {
			port = 27017
		}
		if ds.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", ds.Username, password, ds.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", ds.Host, port)
		}
	}

	dbName = ds.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	if dbName == "" {
		dbName = "test"
	}
	return uri, dbName
}

// databaseFromURI extracts the path segment of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	rest := uri
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		rest = strings.TrimPrefix(rest, prefix)
	}
	if at := strings.LastIndex(rest, "@"); at != -1 {
		rest = rest[at+1:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return ""
	}
	path := rest[slash+1:]
	if q := strings.Index(path, "?"); q != -1 {
		path = path[:q]
	}
	return path
}

func newMongoConnector(ds *domain.DataSource, password string) (*mongoConnector, error) {
	uri, dbName := buildMongoURI(ds, password)
	collection := ds.Table
	if collection == "" {
		collection = "products"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoConnector{client: client, dbName: dbName, collection: collection}, nil
}

func (m *mongoConnector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

// productFilter is the find filter for q.
func productFilter(q ProductQuery) bson.D {
	if q.Category == "" {
		return bson.D{}
	}
	return bson.D{{Key: "category", Value: q.Category}}
}

func (m *mongoConnector) Products(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetLimit(int64(q.limit()))

	coll := m.client.Database(m.dbName).Collection(m.collection)
	cursor, err := coll.Find(ctx, productFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, productFromDoc(d))
	}
	return products, nil
}

// productFromDoc maps a loosely typed document onto a Product. The id
// falls back to _id when the document has no id field.
func productFromDoc(d bson.M) domain.Product {
	p := domain.Product{
		Title:    docString(d["title"]),
		Price:    docFloat(d["price"]),
		Image:    docString(d["image"]),
		URL:      docString(d["url"]),
		Category: docString(d["category"]),
	}
	if id, ok := d["id"]; ok {
		p.ID = docString(id)
	} else {
		p.ID = docString(d["_id"])
	}
	return p
}

func docString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bson.ObjectID:
		return val.Hex()
	default:
		return formatID(val)
	}
}

func docFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case bson.Decimal128:
		f, err := strconv.ParseFloat(val.String(), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (m *mongoConnector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
