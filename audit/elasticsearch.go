// audit/elasticsearch.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
	index    string
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL, index string) (*ElasticsearchRepository, error) {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient, index: index}, nil
}

// LogMembershipChange indexes an audit entry.
func (r *ElasticsearchRepository) LogMembershipChange(ctx context.Context, entry AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: entry.ID,
		Body:       bytes.NewReader(data),
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}
	return nil
}

func buildSearchQuery(query AuditQuery) map[string]any {
	must := []any{}

	if !query.From.IsZero() || !query.To.IsZero() {
		rng := map[string]any{}
		if !query.From.IsZero() {
			rng["gte"] = query.From.Format(time.RFC3339)
		}
		if !query.To.IsZero() {
			rng["lte"] = query.To.Format(time.RFC3339)
		}
		must = append(must, map[string]any{"range": map[string]any{"created_at": rng}})
	}
	if query.UserID != "" {
		must = append(must, map[string]any{"term": map[string]any{"user_id": query.UserID}})
	}
	if query.GroupID != "" {
		must = append(must, map[string]any{"term": map[string]any{"group_id": query.GroupID}})
	}

	size := query.Limit
	if size <= 0 {
		size = defaultQueryLimit
	}

	return map[string]any{
		"size":  size,
		"from":  query.Offset,
		"sort":  []any{map[string]any{"created_at": map[string]any{"order": "desc"}}},
		"query": map[string]any{"bool": map[string]any{"must": must}},
	}
}

// QueryLogs searches the index with the same filters as the SQL repository.
func (r *ElasticsearchRepository) QueryLogs(ctx context.Context, query AuditQuery) ([]AuditEntry, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildSearchQuery(query)); err != nil {
		return nil, err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.index),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var body struct {
		Hits struct {
			Hits []struct {
				Source AuditEntry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}

	entries := make([]AuditEntry, 0, len(body.Hits.Hits))
	for _, hit := range body.Hits.Hits {
		entries = append(entries, hit.Source)
	}
	return entries, nil
}
