package diag

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
)

// Format selects a diagnostics export format, adapted from the
// teacher's reporting.ExportReport format switch.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
)

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

type xmlReport struct {
	XMLName     struct{}         `xml:"diagnostics"`
	Diagnostics []jsonDiagnostic `xml:"diagnostic"`
}

func (b *Bag) flatten() []jsonDiagnostic {
	out := make([]jsonDiagnostic, 0, len(b.Errors)+len(b.Warnings))
	for _, e := range b.Errors {
		out = append(out, jsonDiagnostic{"error", string(e.Kind), e.Loc.File, e.Loc.Line, e.Loc.Column, e.Message})
	}
	for _, w := range b.Warnings {
		out = append(out, jsonDiagnostic{"warning", string(w.Kind), w.Loc.File, w.Loc.Line, w.Loc.Column, w.Message})
	}
	return out
}

// Export writes the bag to w in the requested format. This is the
// multi-format path adapted from the teacher's reporting.exportJSON/
// exportXML/exportCSV trio, so a CI front end driving `basicc
// --diagnostics-format=json` gets machine-readable output instead of
// scraping the text form.
func (b *Bag) Export(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b.flatten())
	case FormatXML:
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		return enc.Encode(xmlReport{Diagnostics: b.flatten()})
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"severity", "kind", "file", "line", "column", "message"}); err != nil {
			return err
		}
		for _, d := range b.flatten() {
			if err := cw.Write([]string{d.Severity, d.Kind, d.File, itoa(d.Line), itoa(d.Column), d.Message}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		_, err := fmt.Fprint(w, b.Text())
		return err
	}
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }
