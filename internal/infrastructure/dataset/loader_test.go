package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crwatch/backend/internal/domain"
	"github.com/crwatch/backend/internal/usecase"
)

const sampleJSON = `{
  "Company": [
    {"PageID": "acme", "PageName": "Acme Corp", "Website": "https://acme.com", "Tags": ["tools"]},
    "not an object"
  ],
  "Incident": [
    {"PageID": 42, "PageName": "Acme Battery Recall", "Company": "Acme Corp", "Status": "Active, Ongoing", "StartDate": "2023-01-05"}
  ],
  "Product": [
    {"PageID": "widget", "PageName": "Acme Widget", "Company": "Acme Corp", "Description": "Ben &amp; Jerry&#39;s"}
  ],
  "ProductLine": [
    {"PageID": "widgets", "PageName": "Widget Line", "Company": 7}
  ]
}`

const sampleYAML = `
Company:
  - PageID: acme
    PageName: Acme &amp; Sons
    Website: https://acme.com
Incident:
  - PageID: recall
    PageName: Acme Recall
    StartDate: 2023-01-05
Product: []
ProductLine: []
`

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"data.json", FormatJSON},
		{"data.yaml", FormatYAML},
		{"DATA.YML", FormatYAML},
		{"data", FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromPath(tt.path))
		})
	}
}

func TestDecode_JSON(t *testing.T) {
	entries, err := Decode([]byte(sampleJSON), FormatJSON, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Flattened in section order
	assert.Equal(t, domain.EntityCompany, entries[0].Type)
	assert.Equal(t, domain.EntityIncident, entries[1].Type)
	assert.Equal(t, domain.EntityProduct, entries[2].Type)
	assert.Equal(t, domain.EntityProductLine, entries[3].Type)

	assert.Equal(t, "42", entries[1].PageID)
	assert.Equal(t, "Active", entries[1].PrimaryStatus())
	assert.Equal(t, "2023-01-05", entries[1].StartDate)

	assert.Equal(t, "Ben & Jerry's", entries[2].Description)
	assert.Empty(t, entries[3].Company, "non-string references become empty")
	assert.Equal(t, []any{"tools"}, entries[0].Extra["Tags"])
}

func TestDecode_YAML(t *testing.T) {
	entries, err := Decode([]byte(sampleYAML), FormatYAML, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Acme & Sons", entries[0].PageName)
	assert.Equal(t, "2023-01-05", entries[1].StartDate)
}

func TestDecode_YAMLTimestamps(t *testing.T) {
	const incidents = `
Company:
  - PageID: acme
    PageName: Acme
Incident:
  - PageID: undated
    PageName: Undated Incident
    Company: Acme
  - PageID: old
    PageName: Old Recall
    Company: Acme
    StartDate: 2019-06-01
  - PageID: new
    PageName: New Breach
    Company: Acme
    StartDate: 2024-02-10T08:30:00Z
  - PageID: quoted
    PageName: Quoted Leak
    Company: Acme
    StartDate: "2021-03-04"
`
	entries, err := Decode([]byte(incidents), FormatYAML, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, entries, 5)

	byID := make(map[string]domain.Entry, len(entries))
	for _, entry := range entries {
		byID[entry.ID()] = entry
	}
	assert.Equal(t, "2019-06-01", byID["old"].StartDate)
	assert.Equal(t, "2024-02-10T08:30:00Z", byID["new"].StartDate)
	assert.Equal(t, "2021-03-04", byID["quoted"].StartDate)

	company := byID["acme"]
	var ids []string
	for _, incident := range usecase.OrderIncidents(entries[1:], &company, nil) {
		ids = append(ids, incident.ID())
	}
	assert.Equal(t, []string{"new", "quoted", "old", "undated"}, ids)
}

func TestDecode_EntitiesDecodedOnceForDisplay(t *testing.T) {
	entries, err := Decode([]byte(`{"Product": [{"PageID": "p", "PageName": "Fish &amp;lt;3"}]}`), FormatJSON, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "Fish &lt;3", entries[0].PageName)
	assert.Equal(t, "fish 3", usecase.Normalize(entries[0].PageName))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2023-01-05", formatTimestamp(time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2023-01-05T10:04:00Z", formatTimestamp(time.Date(2023, 1, 5, 10, 4, 0, 0, time.UTC)))

	offset := time.FixedZone("", -5*60*60)
	assert.Equal(t, "2023-01-05T00:00:00-05:00", formatTimestamp(time.Date(2023, 1, 5, 0, 0, 0, 0, offset)))
}

func TestDecode_MissingAndMalformedSections(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	entries, err := Decode([]byte(`{"Company": {"PageID": "x"}, "Product": [{"PageID": "p", "PageName": "Thing"}]}`), FormatJSON, logger)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "p", entries[0].PageID)
	assert.Contains(t, logs.String(), "dataset section is not a list")
	assert.Contains(t, logs.String(), "dataset section missing")
}

func TestDecode_EmptyDocument(t *testing.T) {
	entries, err := Decode([]byte(`{}`), FormatJSON, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"broken json", `{"Company": [`, FormatJSON},
		{"json array", `[1, 2]`, FormatJSON},
		{"json null", `null`, FormatJSON},
		{"broken yaml", "Company: [unclosed", FormatYAML},
		{"empty yaml", "", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format, zerolog.Nop())
			assert.ErrorIs(t, err, domain.ErrInvalidDataset)
		})
	}
}

func TestLoader_Load(t *testing.T) {
	path := writeDataset(t, "data.json", sampleJSON)
	loader := NewLoader(path, zerolog.Nop())

	snapshot, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, path, snapshot.Source)
	assert.NotEmpty(t, snapshot.Version)
	assert.False(t, snapshot.LoadedAt.IsZero())
	assert.Equal(t, 4, snapshot.Len())
	assert.Equal(t, 1, snapshot.Counts()[domain.EntityIncident])

	again, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, snapshot.Version, again.Version, "every load gets a fresh version")
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing.json"), zerolog.Nop())

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidDataset)
}

func TestLoader_Load_CancelledContext(t *testing.T) {
	loader := NewLoader(writeDataset(t, "data.json", sampleJSON), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
