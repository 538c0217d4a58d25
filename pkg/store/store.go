// Package store keeps finished figure documents between runs.
//
// Backends implement [Store]:
//   - [MemoryStore]: in-process map, for tests and one-shot servers
//   - [FileStore]: one JSON file per document, for the CLI
//   - [MongoStore]: a MongoDB collection, for shared deployments
//
// Document ids double as file names and collection keys and are checked
// with [errors.ValidateDocumentID] before any backend touches them.
//
// # Usage
//
//	st, err := store.NewFileStore("")  // ~/.local/share/d3fig/documents
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	if err := st.Put(ctx, store.NewRecord(doc)); err != nil {
//	    return err
//	}
//	rec, err := st.Get(ctx, doc.ID)
//
// [errors.ValidateDocumentID]: github.com/matzehuels/d3fig/pkg/errors.ValidateDocumentID
package store

import (
	"context"
	"sort"
	"time"

	figerr "github.com/matzehuels/d3fig/pkg/errors"
	"github.com/matzehuels/d3fig/pkg/scene"
)

// Record is a stored figure document.
type Record struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Document  *scene.Document `json:"document,omitempty"`
}

// NewRecord wraps doc for storage, keyed by the figure id.
func NewRecord(doc *scene.Document) *Record {
	return &Record{
		ID:        doc.ID,
		CreatedAt: time.Now().UTC(),
		Width:     doc.Width,
		Height:    doc.Height,
		Document:  doc,
	}
}

// summary returns a copy of r without the document body.
func (r *Record) summary() *Record {
	return &Record{ID: r.ID, CreatedAt: r.CreatedAt, Width: r.Width, Height: r.Height}
}

// Store is the interface for document storage backends.
type Store interface {
	// Get retrieves a record by id. A missing id fails with NOT_FOUND.
	Get(ctx context.Context, id string) (*Record, error)

	// Put stores a record, replacing any record with the same id.
	Put(ctx context.Context, rec *Record) error

	// Delete removes a record. Deleting a missing id fails with NOT_FOUND.
	Delete(ctx context.Context, id string) error

	// List returns every record without its document, newest first.
	List(ctx context.Context) ([]*Record, error)

	Close() error
}

func notFound(id string) error {
	return figerr.New(figerr.ErrCodeNotFound, "document %q not found", id)
}

func validateRecord(rec *Record) error {
	if rec == nil || rec.Document == nil {
		return figerr.New(figerr.ErrCodeInvalidInput, "record has no document")
	}
	return figerr.ValidateDocumentID(rec.ID)
}

// sortNewest orders records by creation time, newest first, then by id.
func sortNewest(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}
