package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/crwatch/backend/internal/domain"
	"github.com/crwatch/backend/internal/usecase"
)

// Format is the encoding of a dataset file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension; anything that is
// not .yaml or .yml is read as JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Loader reads the dataset file into snapshots
type Loader struct {
	path   string
	logger zerolog.Logger
	now    func() time.Time
}

// NewLoader creates a loader for the dataset file at path
func NewLoader(path string, logger zerolog.Logger) *Loader {
	return &Loader{
		path:   path,
		logger: logger.With().Str("component", "dataset").Logger(),
		now:    time.Now,
	}
}

// Path returns the dataset file path
func (l *Loader) Path() string {
	return l.path
}

// Load reads and decodes the dataset file into a new snapshot
func (l *Loader) Load(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidDataset, l.path, err)
	}

	entries, err := Decode(data, FormatFromPath(l.path), l.logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}

	return &domain.Snapshot{
		Entries:  entries,
		Version:  uuid.NewString(),
		Source:   l.path,
		LoadedAt: l.now().UTC(),
	}, nil
}

// Decode parses a dataset document into entries.
// Missing or malformed sections are logged and treated as empty, items that
// are not objects are skipped, and every string value is entity decoded.
func Decode(data []byte, format Format, logger zerolog.Logger) ([]domain.Entry, error) {
	document, err := decodeDocument(data, format)
	if err != nil {
		return nil, err
	}

	var entries []domain.Entry
	for _, section := range domain.DatasetSections {
		raw, present := document[string(section)]
		if !present {
			logger.Warn().Str("section", string(section)).Msg("dataset section missing, using empty list")
			continue
		}

		items, ok := raw.([]any)
		if !ok {
			logger.Warn().
				Str("section", string(section)).
				Str("got", fmt.Sprintf("%T", raw)).
				Msg("dataset section is not a list, using empty list")
			continue
		}

		for index, item := range items {
			row, ok := item.(map[string]any)
			if !ok {
				logger.Warn().
					Str("section", string(section)).
					Int("index", index).
					Msg("dataset item is not an object, skipping")
				continue
			}
			decoded, _ := decodeEntities(row).(map[string]any)
			entries = append(entries, domain.EntryFromMap(section, decoded))
		}
	}

	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

func decodeDocument(data []byte, format Format) (map[string]any, error) {
	var document map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %v", domain.ErrInvalidDataset, err)
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&document); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", domain.ErrInvalidDataset, err)
		}
	}

	if document == nil {
		return nil, fmt.Errorf("%w: top level must be an object", domain.ErrInvalidDataset)
	}
	return document, nil
}

// decodeEntities returns value with every nested string entity decoded.
// Matching decodes again in usecase.Normalize; only the display text keeps
// the single decode.
// YAML timestamps are turned back into strings so dates such as an unquoted
// StartDate survive as text.
func decodeEntities(value any) any {
	switch v := value.(type) {
	case string:
		return usecase.DecodeHTMLEntities(v)
	case time.Time:
		return formatTimestamp(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = decodeEntities(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = decodeEntities(item)
		}
		return out
	default:
		return value
	}
}

func formatTimestamp(t time.Time) string {
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}
