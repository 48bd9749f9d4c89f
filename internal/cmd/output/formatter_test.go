package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/internal/retrieval"
	"github.com/agentstation/osiris/pkg/events"
)

var observed = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "wide", want: FormatWide},
		{in: "csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestJSONAndYAMLFormatters(t *testing.T) {
	data := struct {
		Name  string `json:"name" yaml:"name"`
		Count int    `json:"count" yaml:"count"`
	}{Name: "usgs", Count: 3}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, data))
	assert.Contains(t, buf.String(), `"name": "usgs"`)

	buf.Reset()
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, data))
	assert.Contains(t, buf.String(), "name: usgs")
	assert.Contains(t, buf.String(), "count: 3")
}

func TestTableFormatterReflection(t *testing.T) {
	type row struct {
		EventCount int    `json:"event_count"`
		Name       string `json:"name,omitempty"`
		Plain      bool
	}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, []row{{EventCount: 4, Name: "Quakes", Plain: true}}))
	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "EVENT COUNT")
	assert.Contains(t, out, "QUAKES")

	buf.Reset()
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, row{EventCount: 2, Name: "Vulns"}))
	assert.Contains(t, strings.ToUpper(buf.String()), "PROPERTY")

	buf.Reset()
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"a": 1}))
	assert.Contains(t, buf.String(), `"a": 1`)
}

func TestEventsToTableData(t *testing.T) {
	e := events.New(events.SourceUSGS, events.CategoryEarthquake, strings.Repeat("long title ", 10), observed).At(38.25, 140.875)
	e.Severity = events.SeverityHigh

	narrow := EventsToTableData([]events.Event{e}, false)
	require.Len(t, narrow.Rows, 1)
	assert.Len(t, narrow.Headers, 4)
	assert.Equal(t, "2026-03-01 08:00Z", narrow.Rows[0][0])
	assert.True(t, strings.HasSuffix(narrow.Rows[0][3], "..."))
	assert.LessOrEqual(t, len([]rune(narrow.Rows[0][3])), titleWidth)

	wide := EventsToTableData([]events.Event{e}, true)
	assert.Len(t, wide.Headers, 8)
	assert.Equal(t, "high", wide.Rows[0][4])
	assert.Equal(t, "38.250,140.875", wide.Rows[0][5])
	assert.Equal(t, e.ID, wide.Rows[0][7])
}

func TestFeedsToTableData(t *testing.T) {
	msg := "upstream returned 503"
	feeds := []events.FeedStatus{
		{Name: "USGS Earthquakes", Source: events.SourceUSGS, Configured: true, EventCount: 12, LastFetch: &observed},
		{Name: "AlienVault OTX", Source: events.SourceOTX, Error: &msg},
	}

	data := FeedsToTableData(feeds, true)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "✓", data.Rows[0][2])
	assert.Equal(t, "12", data.Rows[0][3])
	assert.Equal(t, "✗", data.Rows[1][2])
	assert.Equal(t, "-", data.Rows[1][4])
	assert.Equal(t, msg, data.Rows[1][5])
}

func TestResultsAndOutcomesTables(t *testing.T) {
	e := events.New(events.SourceCISAKEV, events.CategoryCyber, "VPN flaw", observed)
	results := ResultsToTableData([]retrieval.Result{{Event: e, Score: 0.87654}}, false)
	assert.Equal(t, "0.877", results.Rows[0][0])

	outcomes := OutcomesToTableData([]cycle.Outcome{
		{Connector: "USGS", Result: cycle.ResultOK, Events: 5, Duration: 1500 * time.Microsecond},
		{Connector: "OTX", Result: cycle.ResultUnconfigured},
		{Connector: "EONET", Result: cycle.ResultFetchError, Error: "timeout"},
	})
	require.Len(t, outcomes.Rows, 3)
	assert.Equal(t, "✓ USGS", outcomes.Rows[0][0])
	assert.Equal(t, "2ms", outcomes.Rows[0][3])
	assert.Equal(t, "- OTX", outcomes.Rows[1][0])
	assert.Equal(t, "✗ EONET", outcomes.Rows[2][0])
	assert.Equal(t, "timeout", outcomes.Rows[2][4])
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	data := Data{Headers: []string{"A", "B"}, Rows: [][]string{{"1", "2"}}, ColumnAlignment: []Align{AlignLeft, AlignRight}}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
	assert.Contains(t, buf.String(), "1")
	assert.Contains(t, buf.String(), "2")
}
