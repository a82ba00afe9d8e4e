package search

import (
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

// BrokerDocument is the indexed view of a broker.
type BrokerDocument struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	BrokerageName string   `json:"brokerage_name"`
	LicenseNumber string   `json:"license_number"`
	LicenseState  string   `json:"license_state"`
	Emails        []string `json:"emails"`
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "brokers",
	}
}

// InitIndex creates the brokers index and its settings
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Index creation is async; an existing index fails the task, not the call
	if err != nil && !strings.Contains(err.Error(), "index_already_exists") {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"name",
		"license_number",
		"emails",
		"brokerage_name",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"license_state",
		"brokerage_name",
	})
	return err
}

// IndexBrokers adds or replaces broker documents
func (s *SearchClient) IndexBrokers(docs []BrokerDocument) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// SearchBrokers returns matching broker IDs, best match first
func (s *SearchClient) SearchBrokers(query string, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	res, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if id := hitID(hit); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func hitID(hit interface{}) string {
	m, ok := hit.(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := m["id"].(string)
	return id
}
