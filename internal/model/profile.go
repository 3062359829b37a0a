package model

import (
	"sort"
)

// Placeholder markers shown while a profile is pending.
const (
	PendingMarker = "..."
	PendingRisk   = "Pending..."
)

// ShipmentCounts buckets shipment totals by period.
type ShipmentCounts struct {
	LastMonth   Count `json:"lastMonth"`
	LastQuarter Count `json:"lastQuarter"`
	LastYear    Count `json:"lastYear"`
}

// ShipmentEvent is a single manifest line on a profile.
type ShipmentEvent struct {
	Date            string `json:"date"`
	Shipper         string `json:"shipper"`
	Origin          string `json:"origin"`
	PortOfDischarge string `json:"portOfDischarge"`
	Commodity       string `json:"commodity"`
	Volume          string `json:"volume"` // TEUs, weight, or quantity
	Carrier         string `json:"carrier,omitempty"`
	HSCode          string `json:"hsCode,omitempty"`
	BOLNumber       string `json:"bolNumber,omitempty"`
	Source          string `json:"source,omitempty"`
}

// ShipmentVolume is one point of the yearly volume trend.
type ShipmentVolume struct {
	Year   int     `json:"year"`
	Volume float64 `json:"volume"`
}

// RiskAssessment holds qualitative risk ratings.
type RiskAssessment struct {
	FinancialStability   string `json:"financialStability"`
	RegulatoryCompliance string `json:"regulatoryCompliance"`
	GeopoliticalRisk     string `json:"geopoliticalRisk"`
}

// TradePartner is a country the importer trades with.
type TradePartner struct {
	Country     string `json:"country"`
	TradeVolume string `json:"tradeVolume"`
}

// TopSupplier is a frequent shipper to the importer.
type TopSupplier struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Product      string `json:"product"`
	LastShipment string `json:"lastShipment,omitempty"`
}

// CommodityFlow is a share of the importer's inbound commodities.
type CommodityFlow struct {
	Name                  string    `json:"name"`
	Percentage            string    `json:"percentage"`
	AveragePrice          string    `json:"averagePrice,omitempty"`
	MarketTrend           string    `json:"marketTrend,omitempty"`
	TopSupplier           string    `json:"topSupplier,omitempty"`
	PriceTrendData        []float64 `json:"priceTrendData,omitempty"`
	ImportVolumeTrendData []float64 `json:"importVolumeTrendData,omitempty"`
}

// ParsedImporterData is the full detailed profile of an importer.
type ParsedImporterData struct {
	ImporterName          string           `json:"importerName"`
	Location              string           `json:"location"`
	LastShipmentDate      string           `json:"lastShipmentDate"`
	Information           string           `json:"information"`
	Insights              []string         `json:"insights"`
	ShipmentActivity      string           `json:"shipmentActivity"`
	ShipmentCounts        ShipmentCounts   `json:"shipmentCounts"`
	ShipmentHistory       []ShipmentEvent  `json:"shipmentHistory"`
	ShipmentVolumeHistory []ShipmentVolume `json:"shipmentVolumeHistory"`
	Commodities           string           `json:"commodities"`
	Contact               ContactInfo      `json:"contact"`
	RiskAssessment        RiskAssessment   `json:"riskAssessment"`
	TopTradePartners      []TradePartner   `json:"topTradePartners"`
	TopCommodityFlows     []CommodityFlow  `json:"topCommodityFlows"`
	TopSuppliers          []TopSupplier    `json:"topSuppliers"`
	ScrapedData           []ScrapedData    `json:"scrapedData,omitempty"`
	Sources               []Source         `json:"sources,omitempty"`
}

// DetailedImporterResult wraps a resolved or pending profile.
type DetailedImporterResult struct {
	ParsedData ParsedImporterData `json:"parsedData"`
}

// PendingProfile builds the optimistic placeholder shown while the detailed
// profile is being resolved.
func PendingProfile(s ImporterSummary) ParsedImporterData {
	return ParsedImporterData{
		ImporterName:     s.ImporterName,
		Location:         s.Location,
		LastShipmentDate: s.LastShipmentDate,
		Commodities:      s.PrimaryCommodities,
		ShipmentCounts: ShipmentCounts{
			LastMonth:   PendingCount(),
			LastQuarter: PendingCount(),
			LastYear:    PendingCount(),
		},
		Insights:              []string{},
		ShipmentHistory:       []ShipmentEvent{},
		ShipmentVolumeHistory: []ShipmentVolume{},
		Contact: ContactInfo{
			Phone:   PendingMarker,
			Website: PendingMarker,
			Email:   PendingMarker,
			Address: PendingMarker,
		},
		RiskAssessment: RiskAssessment{
			FinancialStability:   PendingRisk,
			RegulatoryCompliance: PendingRisk,
			GeopoliticalRisk:     PendingRisk,
		},
		TopTradePartners:  []TradePartner{},
		TopCommodityFlows: []CommodityFlow{},
		TopSuppliers:      []TopSupplier{},
	}
}

// IsPending reports whether p is still the optimistic placeholder.
func (p ParsedImporterData) IsPending() bool {
	return p.Information == "" &&
		p.ShipmentCounts.LastMonth.IsPlaceholder() &&
		p.ShipmentCounts.LastQuarter.IsPlaceholder() &&
		p.ShipmentCounts.LastYear.IsPlaceholder() &&
		len(p.ShipmentHistory) == 0 &&
		len(p.ShipmentVolumeHistory) == 0
}

// SortedVolumes returns a copy of the volume history ordered by year.
func (p ParsedImporterData) SortedVolumes() []ShipmentVolume {
	return SortVolumes(p.ShipmentVolumeHistory)
}

// SortVolumes returns a copy of v sorted ascending by year. Entries with the
// same year keep their arrival order.
func SortVolumes(v []ShipmentVolume) []ShipmentVolume {
	out := make([]ShipmentVolume, len(v))
	copy(out, v)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
