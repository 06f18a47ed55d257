package stores

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/models"
)

const materialsIndex = "materials"

// materialSource is the wire form of one indexed material.
type materialSource struct {
	ID          int64  `json:"id"`
	LectureID   int64  `json:"id_lect"`
	Name        string `json:"name"`
	LectureText string `json:"lecture_text"`
}

// ElasticStore is the search adapter over the materials index.
type ElasticStore struct {
	client *elasticsearch.Client
	logger zerolog.Logger
}

// NewElasticStore creates a search adapter over the given client.
func NewElasticStore(client *elasticsearch.Client, logger zerolog.Logger) *ElasticStore {
	return &ElasticStore{client: client, logger: logger}
}

// BulkIndex writes all material documents in one bulk request, keyed by
// their relational identifiers so re-indexing overwrites instead of
// duplicating.
func (s *ElasticStore) BulkIndex(ctx context.Context, docs []models.MaterialDocument) error {
	if len(docs) == 0 {
		return nil
	}
	var body bytes.Buffer
	for _, doc := range docs {
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, materialsIndex, strconv.FormatInt(doc.ID, 10))
		body.WriteString(meta)
		body.WriteByte('\n')
		source, err := json.Marshal(materialSource{
			ID:          doc.ID,
			LectureID:   doc.LectureID,
			Name:        doc.Name,
			LectureText: doc.Content,
		})
		if err != nil {
			return fmt.Errorf("encoding material %d: %w", doc.ID, err)
		}
		body.Write(source)
		body.WriteByte('\n')
	}

	res, err := s.client.Bulk(bytes.NewReader(body.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk indexing materials: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk indexing materials: %s", responseError(res))
	}

	var bulkResponse struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
		return fmt.Errorf("decoding bulk response: %w", err)
	}
	if bulkResponse.Errors {
		return fmt.Errorf("bulk indexing materials: some items were rejected")
	}

	s.logger.Info().Int("materials", len(docs)).Msg("Materials indexed in Elasticsearch")
	return nil
}

// MatchLectureIDs runs a full-text match on the lecture text and returns
// the lecture identifier of every hit, duplicates included. Callers
// deduplicate after applying the limit.
func (s *ElasticStore) MatchLectureIDs(ctx context.Context, text string, limit int) ([]int64, error) {
	query := map[string]any{
		"size":    limit,
		"_source": []string{"id_lect"},
		"query": map[string]any{
			"match": map[string]any{
				"lecture_text": text,
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encoding search query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(materialsIndex),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("searching materials: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("searching materials: %s", responseError(res))
	}

	var searchResponse struct {
		Hits struct {
			Hits []struct {
				Source materialSource `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResponse); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	ids := make([]int64, 0, len(searchResponse.Hits.Hits))
	for _, hit := range searchResponse.Hits.Hits {
		ids = append(ids, hit.Source.LectureID)
	}
	return ids, nil
}

func responseError(res *esapi.Response) string {
	raw, err := io.ReadAll(res.Body)
	if err != nil || len(raw) == 0 {
		return res.Status()
	}
	return fmt.Sprintf("%s: %s", res.Status(), raw)
}
