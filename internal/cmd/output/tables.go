package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/osiris/internal/cmd/emoji"
	"github.com/agentstation/osiris/internal/cycle"
	"github.com/agentstation/osiris/internal/retrieval"
	"github.com/agentstation/osiris/pkg/events"
)

const titleWidth = 60

// EventsToTableData renders events. Wide adds position, severity and entity
// columns.
func EventsToTableData(evts []events.Event, wide bool) Data {
	headers := []string{"Time", "Source", "Type", "Title"}
	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft}
	if wide {
		headers = append(headers, "Severity", "Position", "Entities", "ID")
		align = append(align, AlignLeft, AlignRight, AlignRight, AlignLeft)
	}

	rows := make([][]string, 0, len(evts))
	for _, e := range evts {
		title := e.Title
		if !wide {
			title = truncate(title, titleWidth)
		}
		row := []string{formatTime(e.Timestamp), string(e.Source), string(e.Type), title}
		if wide {
			row = append(row,
				orDash(string(e.Severity)),
				formatPosition(e),
				strconv.Itoa(len(e.Entities)),
				e.ID,
			)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// FeedsToTableData renders feed status in registration order.
func FeedsToTableData(feeds []events.FeedStatus, wide bool) Data {
	headers := []string{"Name", "Source", "Configured", "Events", "Last Fetch"}
	align := []Align{AlignLeft, AlignLeft, AlignCenter, AlignRight, AlignLeft}
	if wide {
		headers = append(headers, "Error")
		align = append(align, AlignLeft)
	}

	rows := make([][]string, 0, len(feeds))
	for _, f := range feeds {
		configured := emoji.Error
		if f.Configured {
			configured = emoji.Success
		}
		lastFetch := emoji.Optional
		if f.LastFetch != nil {
			lastFetch = formatTime(*f.LastFetch)
		}
		row := []string{f.Name, string(f.Source), configured, strconv.Itoa(f.EventCount), lastFetch}
		if wide {
			msg := emoji.Optional
			if f.Error != nil {
				msg = *f.Error
			}
			row = append(row, msg)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// ResultsToTableData renders ranked search results.
func ResultsToTableData(results []retrieval.Result, wide bool) Data {
	headers := []string{"Score", "Source", "Type", "Title"}
	align := []Align{AlignRight, AlignLeft, AlignLeft, AlignLeft}
	if wide {
		headers = append(headers, "Time", "ID")
		align = append(align, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		title := r.Event.Title
		if !wide {
			title = truncate(title, titleWidth)
		}
		row := []string{
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			string(r.Event.Source),
			string(r.Event.Type),
			title,
		}
		if wide {
			row = append(row, formatTime(r.Event.Timestamp), r.Event.ID)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// OutcomesToTableData renders one cycle's per-connector outcomes.
func OutcomesToTableData(outcomes []cycle.Outcome) Data {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		symbol := emoji.Success
		switch o.Result {
		case cycle.ResultUnconfigured:
			symbol = emoji.Optional
		case cycle.ResultFetchError, cycle.ResultEnrichError:
			symbol = emoji.Error
		}
		rows = append(rows, []string{
			symbol + " " + o.Connector,
			string(o.Result),
			strconv.Itoa(o.Events),
			o.Duration.Round(time.Millisecond).String(),
			orDash(o.Error),
		})
	}
	return Data{
		Headers:         []string{"Connector", "Result", "Events", "Duration", "Error"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return emoji.Optional
	}
	return t.UTC().Format("2006-01-02 15:04Z")
}

func formatPosition(e events.Event) string {
	if !e.HasPosition() {
		return emoji.Optional
	}
	return fmt.Sprintf("%.3f,%.3f", *e.Lat, *e.Lon)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return emoji.Optional
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
