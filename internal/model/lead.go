package model

// RawLead is a normalized record produced by a scrape source. Leads are
// transient: they only feed the detailed-profile prompt as hints.
type RawLead struct {
	Importer         string `json:"importer"`
	CNEE             string `json:"cnee,omitempty"`
	Shipper          string `json:"shipper,omitempty"`
	Commodity        string `json:"commodity,omitempty"`
	HSCode           string `json:"hsCode,omitempty"`
	Origin           string `json:"origin,omitempty"`
	Destination      string `json:"destination,omitempty"`
	LastShipmentDate string `json:"lastShipmentDate,omitempty"`
	Weight           string `json:"weight,omitempty"`
	ContainerCount   string `json:"containerCount,omitempty"`
	Source           string `json:"source"`
	URL              string `json:"url,omitempty"`
}

// ManifestRecord is one row served by the /scrape endpoint.
type ManifestRecord struct {
	Date      string `json:"date"`
	Consignee string `json:"consignee"`
	Shipper   string `json:"shipper"`
	Commodity string `json:"commodity"`
}

// Lead converts a manifest row into a RawLead tagged with source.
func (r ManifestRecord) Lead(source string) RawLead {
	return RawLead{
		Importer:         r.Consignee,
		CNEE:             r.Consignee,
		Shipper:          r.Shipper,
		Commodity:        r.Commodity,
		LastShipmentDate: r.Date,
		Source:           source,
	}
}

// ManifestRecordFromLead is the inverse of ManifestRecord.Lead.
func ManifestRecordFromLead(l RawLead) ManifestRecord {
	consignee := l.CNEE
	if consignee == "" {
		consignee = l.Importer
	}
	return ManifestRecord{
		Date:      l.LastShipmentDate,
		Consignee: consignee,
		Shipper:   l.Shipper,
		Commodity: l.Commodity,
	}
}

// ScrapedData is the raw scrape passthrough kept on a resolved profile.
type ScrapedData struct {
	Source           string `json:"source"`
	LastShipmentDate string `json:"lastShipmentDate,omitempty"`
	Shipper          string `json:"shipper,omitempty"`
	Commodity        string `json:"commodity,omitempty"`
	Origin           string `json:"origin,omitempty"`
}

// ScrapedFromLeads maps leads to their passthrough form.
func ScrapedFromLeads(leads []RawLead) []ScrapedData {
	if len(leads) == 0 {
		return nil
	}
	out := make([]ScrapedData, 0, len(leads))
	for _, l := range leads {
		out = append(out, ScrapedData{
			Source:           l.Source,
			LastShipmentDate: l.LastShipmentDate,
			Shipper:          l.Shipper,
			Commodity:        l.Commodity,
			Origin:           l.Origin,
		})
	}
	return out
}
