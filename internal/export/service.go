package export

import (
	"context"
	"fmt"

	"verdict/api/internal/store"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetWorkItem(ctx context.Context, itemID string) (store.WorkItem, error)
	ListAudit(ctx context.Context, itemID string) ([]store.AuditEntry, error)
}

// Service renders decision history reports
type Service struct {
	store DataStore
}

func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates a report in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	item, err := s.store.GetWorkItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get work item: %w", err)
	}

	entries, err := s.store.ListAudit(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}

	data := TemplateData{
		Title:       item.Title,
		ItemID:      item.ID,
		ItemType:    item.Type,
		Status:      item.Status,
		Version:     item.Version,
		SubmittedBy: item.SubmittedBy,
		SubmittedAt: item.SubmittedAt,
	}
	if item.Stage != nil {
		data.Stage = *item.Stage
	}
	for _, entry := range entries {
		data.Entries = append(data.Entries, TemplateEntry{
			At:     entry.At,
			Actor:  entry.Actor,
			Action: entry.Action,
			Detail: entry.Detail,
		})
	}

	html, err := RenderHistoryHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, item.Title)
	case FormatDOCX:
		return exportDOCX(html, item.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
