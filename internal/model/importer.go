package model

import "strings"

// SearchFilters holds the user-supplied fields of a consignee search.
type SearchFilters struct {
	Query    string `json:"query"`
	City     string `json:"city"`
	State    string `json:"state"`
	Industry string `json:"industry"`
}

// IsBlank reports whether every filter field is empty after trimming.
func (f SearchFilters) IsBlank() bool {
	return strings.TrimSpace(f.Query) == "" &&
		strings.TrimSpace(f.City) == "" &&
		strings.TrimSpace(f.State) == "" &&
		strings.TrimSpace(f.Industry) == ""
}

// SimilarSeed returns the term used for the competitor search: the query,
// or the industry when no query was given.
func (f SearchFilters) SimilarSeed() string {
	if q := strings.TrimSpace(f.Query); q != "" {
		return q
	}
	return strings.TrimSpace(f.Industry)
}

// ImporterSummary is a lightweight search-result row.
type ImporterSummary struct {
	ImporterName       string   `json:"importerName"`
	Location           string   `json:"location"`
	PrimaryCommodities string   `json:"primaryCommodities"`
	LastShipmentDate   string   `json:"lastShipmentDate"`
	ContactInformation string   `json:"contactInformation,omitempty"`
	Source             string   `json:"source,omitempty"`
	Sources            []Source `json:"sources,omitempty"`
}

// FindSummary returns the first summary whose importer name matches name
// exactly, searching each list in order.
func FindSummary(name string, lists ...[]ImporterSummary) (ImporterSummary, bool) {
	for _, list := range lists {
		for _, s := range list {
			if s.ImporterName == name {
				return s, true
			}
		}
	}
	return ImporterSummary{}, false
}
