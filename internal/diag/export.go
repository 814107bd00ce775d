package diag

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"strconv"
	"strings"
)

// Format selects a --diagnostics-format rendering (spec.md §7).
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
)

// jsonDiagnostic and jsonReport mirror the teacher's
// internal/reporting.SecurityReport shape (severity-bucketed findings
// serialized with encoding/json), generalized from a security finding
// to a compiler diagnostic.
type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

type jsonReport struct {
	Errors   []jsonDiagnostic `json:"errors"`
	Warnings []jsonDiagnostic `json:"warnings"`
}

func toJSONDiagnostic(severity string, d Diagnostic) jsonDiagnostic {
	return jsonDiagnostic{
		Severity: severity,
		Kind:     string(d.Kind),
		File:     d.Loc.File,
		Line:     d.Loc.Line,
		Column:   d.Loc.Column,
		Message:  d.Message,
	}
}

// JSON renders the bag as a single report object, one entry per
// diagnostic, errors then warnings.
func (b *Bag) JSON() (string, error) {
	report := jsonReport{}
	for _, d := range b.Errors {
		report.Errors = append(report.Errors, toJSONDiagnostic("error", d))
	}
	for _, d := range b.Warnings {
		report.Warnings = append(report.Warnings, toJSONDiagnostic("warning", d))
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type xmlDiagnostic struct {
	XMLName  xml.Name `xml:"diagnostic"`
	Severity string   `xml:"severity,attr"`
	Kind     string   `xml:"kind,attr"`
	File     string   `xml:"file,attr"`
	Line     int      `xml:"line,attr"`
	Column   int      `xml:"column,attr"`
	Message  string   `xml:",chardata"`
}

type xmlReport struct {
	XMLName     xml.Name        `xml:"diagnostics"`
	Diagnostics []xmlDiagnostic `xml:"diagnostic"`
}

// XML renders the bag as a flat <diagnostics> document, matching the
// element-per-finding shape of the teacher's reporting XML exporter.
func (b *Bag) XML() (string, error) {
	report := xmlReport{}
	for _, d := range b.Errors {
		report.Diagnostics = append(report.Diagnostics, xmlDiagnosticFrom("error", d))
	}
	for _, d := range b.Warnings {
		report.Diagnostics = append(report.Diagnostics, xmlDiagnosticFrom("warning", d))
	}
	out, err := xml.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

func xmlDiagnosticFrom(severity string, d Diagnostic) xmlDiagnostic {
	return xmlDiagnostic{
		Severity: severity,
		Kind:     string(d.Kind),
		File:     d.Loc.File,
		Line:     d.Loc.Line,
		Column:   d.Loc.Column,
		Message:  d.Message,
	}
}

// CSV renders the bag as one row per diagnostic: severity, kind,
// file, line, column, message.
func (b *Bag) CSV() (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{"severity", "kind", "file", "line", "column", "message"}); err != nil {
		return "", err
	}
	writeRows := func(severity string, ds []Diagnostic) error {
		for _, d := range ds {
			row := []string{
				severity,
				string(d.Kind),
				d.Loc.File,
				strconv.Itoa(d.Loc.Line),
				strconv.Itoa(d.Loc.Column),
				d.Message,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	}
	if err := writeRows("error", b.Errors); err != nil {
		return "", err
	}
	if err := writeRows("warning", b.Warnings); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Render dispatches to the requested --diagnostics-format, falling
// back to Text for an unrecognized or empty format.
func (b *Bag) Render(f Format) (string, error) {
	switch f {
	case FormatJSON:
		return b.JSON()
	case FormatXML:
		return b.XML()
	case FormatCSV:
		return b.CSV()
	default:
		return b.Text(), nil
	}
}
