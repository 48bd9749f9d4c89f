package cmdutil

import (
	"io"

	"github.com/agentstation/osiris/internal/cmd/output"
)

// Render writes data to w in format. Table formats render table(wide); the
// structured formats encode data as is.
func Render(w io.Writer, format string, data any, table func(wide bool) output.Data) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	f = output.DetectFormat(string(f))
	if f.IsTable() && table != nil {
		return output.NewFormatter(f).Format(w, table(f == output.FormatWide))
	}
	return output.NewFormatter(f).Format(w, data)
}
