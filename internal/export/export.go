// Package export renders importer profiles and search results as JSON,
// YAML, CSV or XLSX.
package export

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/importer-intel/internal/model"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a user-supplied name (case-insensitive, "yml" allowed)
// to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("export: unsupported format %q", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Filename returns a download name for an importer profile.
func (f Format) Filename(importerName string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, strings.TrimSpace(importerName))
	base = strings.Trim(base, "-")
	if base == "" {
		base = "importer"
	}
	return base + "-profile." + string(f)
}

// WriteProfile writes a detailed profile in format f. The volume history is
// always emitted sorted by year.
func WriteProfile(w io.Writer, f Format, result model.DetailedImporterResult) error {
	p := result.ParsedData
	p.ShipmentVolumeHistory = p.SortedVolumes()
	result.ParsedData = p

	switch f {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatYAML:
		return writeYAML(w, result)
	case FormatCSV:
		return writeProfileCSV(w, p)
	case FormatXLSX:
		return writeProfileXLSX(w, p)
	}
	return eris.Errorf("export: unsupported format %q", f)
}

// WriteSummaries writes search results in format f.
func WriteSummaries(w io.Writer, f Format, summaries []model.ImporterSummary) error {
	if summaries == nil {
		summaries = []model.ImporterSummary{}
	}
	switch f {
	case FormatJSON:
		return writeJSON(w, summaries)
	case FormatYAML:
		return writeYAML(w, summaries)
	case FormatCSV:
		return writeSummariesCSV(w, summaries)
	case FormatXLSX:
		return writeSummariesXLSX(w, summaries)
	}
	return eris.Errorf("export: unsupported format %q", f)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "export: encode json")
}

// writeYAML goes through JSON so the YAML keys match the JSON wire names
// and custom marshalers (Count) apply.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return eris.Wrap(err, "export: decode yaml node")
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "export: flush yaml")
	}
	_, err = w.Write(buf.Bytes())
	return eris.Wrap(err, "export: write yaml")
}

// blockStyle clears the flow style JSON input leaves on every node.
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style &^= yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
