// Package archive indexes terminally-dispatched notifications into
// Elasticsearch for delivery audit search. Indexing is best-effort: a
// failure is reported to the caller for logging and never affects the
// dispatch outcome.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"notification-service/internal/common/database"
	"notification-service/internal/models"
)

type Archiver struct {
	es    *database.ElasticsearchClient
	index string
}

func New(es *database.ElasticsearchClient, index string) *Archiver {
	return &Archiver{es: es, index: index}
}

// Index writes the record to the archive index, keyed by notification id
// so re-dispatched duplicates overwrite rather than accumulate.
func (a *Archiver) Index(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	res, err := a.es.Client.Index(
		a.index,
		bytes.NewReader(body),
		a.es.Client.Index.WithDocumentID(n.ID),
		a.es.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index notification: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index notification: %s", res.Status())
	}
	return nil
}
