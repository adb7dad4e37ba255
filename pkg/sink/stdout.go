package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tweetstats/pkg/stats"
	"tweetstats/pkg/ui"
)

// StdoutSink prints the report to standard output, either as an aligned
// table or as a single JSON document
type StdoutSink struct {
	out    io.Writer
	format string
}

// NewStdoutSink creates a stdout sink. Format is "table" or "json".
func NewStdoutSink(format string) *StdoutSink {
	if format == "" {
		format = "table"
	}
	return &StdoutSink{out: os.Stdout, format: format}
}

// NewStdoutSinkWriter creates a stdout sink writing to w (used by tests)
func NewStdoutSinkWriter(w io.Writer, format string) *StdoutSink {
	s := NewStdoutSink(format)
	s.out = w
	return s
}

// Name identifies the sink
func (s *StdoutSink) Name() string { return "stdout" }

// Publish prints the snapshot
func (s *StdoutSink) Publish(ctx context.Context, snapshot *stats.Snapshot) error {
	if s.format == "json" {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	fmt.Fprintf(s.out, "\n%s @%s\n", ui.Cyan("Statistics for"), snapshot.Username)
	fmt.Fprintf(s.out, "%s %s  %s %s\n\n",
		ui.Dim("run"), snapshot.RunID,
		ui.Dim("collected"), snapshot.CollectedAt.Format("2006-01-02 15:04:05 MST"))

	report := stats.NewReport()
	for name, v := range snapshot.Metrics {
		report.Set(name, v)
	}
	for _, name := range report.Names() {
		fmt.Fprintf(s.out, "  %-24s %d\n", name, report.Get(name))
	}

	if snapshot.Partial {
		fmt.Fprintf(s.out, "\n%s\n", ui.Yellow("(partial run - resume to finish)"))
	}
	fmt.Fprintln(s.out)

	return nil
}
