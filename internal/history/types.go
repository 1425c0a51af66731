// Package history stores submitted predictions so they can be listed,
// exported and re-imported.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/liver-predict/internal/domain"
)

// Entry is one successful prediction together with the record that produced it.
type Entry struct {
	ID        string                  `json:"id"`
	Record    domain.ClinicalRecord   `json:"record"`
	Result    domain.PredictionResult `json:"result"`
	Outcome   domain.Status           `json:"outcome"`
	Source    string                  `json:"source,omitempty"` // cli, gateway or mcp
	CreatedAt time.Time               `json:"created_at"`
}

// Store defines the interface for prediction history storage.
type Store interface {
	// Save inserts entry, assigning an ID and CreatedAt when unset.
	Save(ctx context.Context, entry *Entry) error

	// Get returns the entry with id, or an error wrapping domain.ErrNotFound.
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns entries newest first.
	List(ctx context.Context, limit, offset int) ([]*Entry, error)

	// Count returns the total number of entries.
	Count(ctx context.Context) (int64, error)

	// Delete removes the entry with id, or returns an error wrapping domain.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// ExportJSON writes every entry to writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON reads an export, skipping entries whose ID already exists.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Entries    []*Entry  `json:"entries"`
}

// ExportVersion is written into every export.
const ExportVersion = "1.0"

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// prepare fills the generated fields of entry.
func prepare(entry *Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
}

func notFound(id string) error {
	return fmt.Errorf("prediction %s: %w", id, domain.ErrNotFound)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func marshalPayload(entry *Entry) (record, result string, err error) {
	r, err := json.Marshal(entry.Record)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode record: %w", err)
	}
	p, err := json.Marshal(entry.Result)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(r), string(p), nil
}

func unmarshalPayload(entry *Entry, record, result []byte) error {
	if err := json.Unmarshal(record, &entry.Record); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal(result, &entry.Result); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

func writeExport(writer io.Writer, entries []*Entry) error {
	if entries == nil {
		entries = []*Entry{}
	}
	export := &Export{
		Version:    ExportVersion,
		ExportedAt: time.Now(),
		Count:      len(entries),
		Entries:    entries,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// importEntries saves every exported entry not already present in store.
func importEntries(ctx context.Context, store Store, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, entry := range export.Entries {
		if entry == nil {
			continue
		}
		if entry.ID != "" {
			_, err := store.Get(ctx, entry.ID)
			if err == nil {
				skipped++
				continue
			}
			if !isNotFound(err) {
				return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
			}
		}

		if err := store.Save(ctx, entry); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}
