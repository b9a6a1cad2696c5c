package report

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"linecap/pkg/line"
)

// document is the JSON and YAML shape of an Invocation
type document struct {
	ID         string      `json:"id" yaml:"id"`
	Command    string      `json:"command" yaml:"command"`
	Start      time.Time   `json:"start" yaml:"start"`
	End        time.Time   `json:"end" yaml:"end"`
	DurationMs float64     `json:"duration_ms" yaml:"duration_ms"`
	Finished   bool        `json:"finished" yaml:"finished"`
	ExitCode   *int        `json:"exit_code" yaml:"exit_code"` // nil when signaled
	Signal     string      `json:"signal,omitempty" yaml:"signal,omitempty"`
	Captured   bool        `json:"captured" yaml:"captured"`
	Lines      []line.Line `json:"lines" yaml:"lines"`
}

func newDocument(inv Invocation) document {
	doc := document{
		ID:         inv.ID,
		Command:    inv.Command,
		Start:      inv.Start,
		End:        inv.End,
		DurationMs: float64(inv.Duration().Microseconds()) / 1000,
		Finished:   inv.Finished,
		Signal:     inv.Status.Signal,
		Captured:   inv.Captured,
		Lines:      inv.Lines,
	}
	if inv.Finished && inv.Status.Exited() {
		code := inv.Status.Code
		doc.ExitCode = &code
	}
	if doc.Lines == nil {
		doc.Lines = []line.Line{}
	}
	return doc
}

func writeJSON(w io.Writer, inv Invocation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(inv))
}

func writeYAML(w io.Writer, inv Invocation) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(inv)); err != nil {
		return err
	}
	return enc.Close()
}
