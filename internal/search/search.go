package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ecom_proj/internal/models"
)

// PageSize is the number of hits fetched per search request. Search keeps
// paging with search_after until a short page comes back.
const PageSize = 100

var searchFields = []string{"name", "desc", "brand", "category"}

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

// NewClient connects to Elasticsearch and checks the cluster answers.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("info", res)
	}
	return client, nil
}

// Index keeps one document per product and answers substring keyword
// queries with product ids.
type Index struct {
	es       *elasticsearch.Client
	name     string
	pageSize int
}

func NewIndex(es *elasticsearch.Client, name string) *Index {
	return &Index{es: es, name: name, pageSize: PageSize}
}

type document struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Desc      string          `json:"desc"`
	Brand     string          `json:"brand"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	Quantity  int             `json:"quantity"`
}

// every text field gets a lowercased keyword twin for substring matching
var indexMapping = func() map[string]any {
	props := map[string]any{
		"id":        map[string]any{"type": "integer"},
		"price":     map[string]any{"type": "scaled_float", "scaling_factor": 100},
		"available": map[string]any{"type": "boolean"},
		"quantity":  map[string]any{"type": "integer"},
	}
	for _, f := range searchFields {
		props[f] = map[string]any{
			"type": "text",
			"fields": map[string]any{
				"raw": map[string]any{"type": "keyword", "normalizer": "lowercase", "ignore_above": 8191},
			},
		}
	}
	return map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"normalizer": map[string]any{
					"lowercase": map[string]any{"type": "custom", "filter": []string{"lowercase"}},
				},
			},
		},
		"mappings": map[string]any{"properties": props},
	}
}()

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.name}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("index exists: unexpected status %s", res.Status())
	}

	body, err := encode(indexMapping)
	if err != nil {
		return err
	}
	res, err = i.es.Indices.Create(i.name,
		i.es.Indices.Create.WithContext(ctx),
		i.es.Indices.Create.WithBody(body),
	)
	if err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index create", res)
	}
	return nil
}

func (i *Index) Index(ctx context.Context, p *models.Product) error {
	body, err := encode(document{
		ID:        p.ID,
		Name:      p.Name,
		Desc:      p.Description,
		Brand:     p.Brand,
		Category:  p.Category,
		Price:     p.Price,
		Available: p.Available,
		Quantity:  p.Quantity,
	})
	if err != nil {
		return err
	}

	res, err := i.es.Index(i.name, body,
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(strconv.Itoa(p.ID)),
		i.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index product", res)
	}
	return nil
}

// Delete removes the product document. A missing document is not an error.
func (i *Index) Delete(ctx context.Context, id int) error {
	res, err := i.es.Delete(i.name, strconv.Itoa(id),
		i.es.Delete.WithContext(ctx),
		i.es.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete product", res)
	}
	return nil
}

// Search returns the ids of every product whose name, description, brand
// or category contains keyword, ignoring case, ordered by id.
func (i *Index) Search(ctx context.Context, keyword string) ([]int, error) {
	var (
		ids   []int
		after []json.RawMessage
	)
	for {
		hits, err := i.searchPage(ctx, keyword, after)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			id, err := strconv.Atoi(hit.ID)
			if err != nil {
				return nil, fmt.Errorf("search: bad document id %q: %w", hit.ID, err)
			}
			ids = append(ids, id)
		}
		if len(hits) < i.pageSize || len(hits[len(hits)-1].Sort) == 0 {
			break
		}
		after = hits[len(hits)-1].Sort
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}

type searchHit struct {
	ID   string            `json:"_id"`
	Sort []json.RawMessage `json:"sort"`
}

func (i *Index) searchPage(ctx context.Context, keyword string, after []json.RawMessage) ([]searchHit, error) {
	q := searchQuery(keyword, i.pageSize)
	if after != nil {
		q["search_after"] = after
	}
	body, err := encode(q)
	if err != nil {
		return nil, err
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.name),
		i.es.Search.WithBody(body),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var r struct {
		Hits struct {
			Hits []searchHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	return r.Hits.Hits, nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func searchQuery(keyword string, size int) map[string]any {
	pattern := "*" + wildcardEscaper.Replace(strings.TrimSpace(keyword)) + "*"

	should := make([]any, 0, len(searchFields))
	for _, f := range searchFields {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				f + ".raw": map[string]any{"value": pattern, "case_insensitive": true},
			},
		})
	}
	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{"should": should, "minimum_should_match": 1},
		},
		"sort":    []any{map[string]any{"id": "asc"}},
		"_source": false,
	}
}

func encode(v any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return &buf, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return fmt.Errorf("%s: elasticsearch error %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}
