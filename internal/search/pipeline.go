// Package search is the indexing side pipeline for policy document
// versions. The core only ever submits work and observes the
// DONE/FAILED acknowledgement; delivery is at-least-once and a failed
// run is retried explicitly by a reviewer, never automatically.
package search

import (
	"fmt"
	"log"

	"verdict/api/internal/store"
)

// Pipeline submits newly activated policy versions for indexing. meili
// may be nil when no engine is configured; every submission then fails
// and stays retriable.
type Pipeline struct {
	meili *Meili
}

func NewPipeline(meili *Meili) *Pipeline {
	return &Pipeline{meili: meili}
}

// Submit indexes the version asynchronously and reports the outcome
// through done. Callers flip indexing status to INDEXING before calling
// and resolve it to DONE or FAILED inside done.
func (p *Pipeline) Submit(v store.PolicyVersion, done func(error)) {
	if p.meili == nil || !p.meili.Healthy() {
		done(fmt.Errorf("submit indexing %s: search engine unavailable", v.ID))
		return
	}

	go func() {
		err := p.meili.IndexPolicy(PolicyRecord{
			ID:         v.ID,
			DocumentID: v.DocumentID,
			Version:    v.Version,
			Title:      v.Title,
			Body:       v.Body,
			Lifecycle:  v.Lifecycle,
		})
		if err != nil {
			log.Printf("search: index policy %s: %v", v.ID, err)
		}
		done(err)
	}()
}

// Retract removes a superseded version from the index, best effort.
// Records keep the lifecycle they were indexed with, so an archived
// version would otherwise keep matching the ACTIVE search filter.
func (p *Pipeline) Retract(versionID string) {
	if p.meili == nil || !p.meili.Healthy() {
		return
	}
	go func() {
		if err := p.meili.DeletePolicy(versionID); err != nil {
			log.Printf("search: retract policy %s: %v", versionID, err)
		}
	}()
}
