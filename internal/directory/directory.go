package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
)

type Kind string

const (
	KindStudent Kind = "student"
	KindStaff   Kind = "staff"
)

// Entry is the searchable projection of a profile.
type Entry struct {
	UserID     string `json:"user_id"`
	Kind       Kind   `json:"kind"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	UNID       string `json:"unid,omitempty"`
	IsArchived bool   `json:"is_archived"`
}

// Directory is an optional full-text index over profiles. The database stays
// the source of truth; the index is refreshed after each committed change.
type Directory interface {
	Index(ctx context.Context, e Entry) error
	Remove(ctx context.Context, userID string) error
	Search(ctx context.Context, kind Kind, q string, from, size int) (int64, []Entry, error)
}

const requestTimeout = 3 * time.Second

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), strings.TrimSpace(string(body)))
	}
	return client, nil
}

type ESDirectory struct {
	es    *elasticsearch.Client
	index string
}

var _ Directory = (*ESDirectory)(nil)

func NewES(es *elasticsearch.Client, index string) *ESDirectory {
	return &ESDirectory{es: es, index: index}
}

func (d *ESDirectory) Index(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("directory: encode: %w", err)
	}
	res, err := d.es.Index(d.index, bytes.NewReader(body),
		d.es.Index.WithDocumentID(e.UserID),
		d.es.Index.WithContext(ctx),
		d.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("directory: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("directory: index: %s", res.Status())
	}
	return nil
}

// Remove treats a missing document as already removed.
func (d *ESDirectory) Remove(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := d.es.Delete(d.index, userID,
		d.es.Delete.WithContext(ctx),
		d.es.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("directory: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("directory: delete: %s", res.Status())
	}
	return nil
}

func (d *ESDirectory) Search(ctx context.Context, kind Kind, q string, from, size int) (int64, []Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(kind, q, from, size)); err != nil {
		return 0, nil, fmt.Errorf("directory: encode query: %w", err)
	}

	res, err := d.es.Search(
		d.es.Search.WithContext(ctx),
		d.es.Search.WithIndex(d.index),
		d.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("directory: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("directory: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("directory: decode: %w", err)
	}

	entries := make([]Entry, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		entries[i] = hit.Source
	}
	return r.Hits.Total.Value, entries, nil
}

func searchBody(kind Kind, q string, from, size int) map[string]any {
	filter := []any{
		map[string]any{"term": map[string]any{"kind": string(kind)}},
	}
	boolQuery := map[string]any{"filter": filter}
	if q = strings.TrimSpace(q); q != "" {
		fields := []string{"name^2", "email"}
		if kind == KindStudent {
			fields = []string{"name^2", "unid^3"}
		}
		boolQuery["must"] = []any{
			map[string]any{
				"multi_match": map[string]any{
					"query":     q,
					"fields":    fields,
					"fuzziness": "AUTO",
				},
			},
		}
	}
	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  from,
		"size":  size,
	}
}
