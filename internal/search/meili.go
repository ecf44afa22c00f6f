package search

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxPolicies = "verdict_policies"

// PolicyRecord is the indexed shape of an active policy version.
type PolicyRecord struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	Version    int    `json:"version"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Lifecycle  string `json:"lifecycle"`
}

// Meili pushes policy versions into Meilisearch. A background health loop
// tracks availability so submissions can fail fast while the engine is
// down instead of piling up timeouts.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the policy index.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxPolicies,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxPolicies, err)
	}

	index := m.client.Index(idxPolicies)
	filterable := []interface{}{"documentId", "lifecycle", "version"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxPolicies, err)
	}
	searchable := []string{"title", "body"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxPolicies, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Healthy reports the last observed engine state.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// IndexPolicy adds or replaces one policy version document.
func (m *Meili) IndexPolicy(record PolicyRecord) error {
	task, err := m.client.Index(idxPolicies).AddDocuments([]PolicyRecord{record}, nil)
	if err != nil {
		return fmt.Errorf("index policy %s: %w", record.ID, err)
	}
	if _, err := m.client.WaitForTask(task.TaskUID, 0); err != nil {
		return fmt.Errorf("wait for policy index task %d: %w", task.TaskUID, err)
	}
	return nil
}

// SearchPolicies queries the index, active versions only.
func (m *Meili) SearchPolicies(query string, limit int64) ([]PolicyRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	resp, err := m.client.Index(idxPolicies).Search(query, &meili.SearchRequest{
		Limit:  limit,
		Filter: `lifecycle = "ACTIVE"`,
	})
	if err != nil {
		return nil, fmt.Errorf("search policies: %w", err)
	}

	records := make([]PolicyRecord, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var record PolicyRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// DeletePolicy removes one policy version from the index.
func (m *Meili) DeletePolicy(id string) error {
	if _, err := m.client.Index(idxPolicies).DeleteDocument(id, nil); err != nil {
		return fmt.Errorf("delete policy %s: %w", id, err)
	}
	return nil
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}
