package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnrecognizedPayload is returned when a decoded provider payload has
// none of the fields the target shape requires.
var ErrUnrecognizedPayload = eris.New("model: payload has no recognizable fields")

var profileKeys = []string{
	"importerName", "location", "information", "insights", "shipmentCounts",
	"shipmentHistory", "shipmentVolumeHistory", "commodities", "contact",
	"riskAssessment", "topTradePartners", "topSuppliers", "topCommodityFlows",
}

// ParseSummaries coerces a decoded {"importers": [...]} tree into summaries.
// A missing importers key yields an empty list; a non-list value is an error.
// Entries without an importer name are dropped.
func ParseSummaries(tree map[string]any) ([]ImporterSummary, error) {
	raw, ok := tree["importers"]
	if !ok || raw == nil {
		return []ImporterSummary{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, eris.Wrapf(ErrUnrecognizedPayload, "importers is %T, want list", raw)
	}
	out := make([]ImporterSummary, 0, len(items))
	for _, it := range objects(items) {
		name := str(it["importerName"])
		if name == "" {
			continue
		}
		s := ImporterSummary{
			ImporterName:       name,
			Location:           str(it["location"]),
			PrimaryCommodities: str(it["primaryCommodities"]),
			LastShipmentDate:   str(it["lastShipmentDate"]),
			ContactInformation: str(it["contactInformation"]),
			Source:             str(it["source"]),
		}
		if srcs := parseSources(it["sources"]); len(srcs) > 0 {
			s.Sources = srcs
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseImporterData coerces a decoded detailed-profile tree into the strict
// profile shape. fallbackName is used when the payload omits importerName.
// Contact strings are normalized to the structured form here so consumers
// never see the string variant.
func ParseImporterData(tree map[string]any, fallbackName string) (ParsedImporterData, error) {
	if !hasAny(tree, profileKeys) {
		return ParsedImporterData{}, ErrUnrecognizedPayload
	}

	p := ParsedImporterData{
		ImporterName:          str(tree["importerName"]),
		Location:              str(tree["location"]),
		LastShipmentDate:      str(tree["lastShipmentDate"]),
		Information:           str(tree["information"]),
		Insights:              strList(tree["insights"]),
		ShipmentActivity:      str(tree["shipmentActivity"]),
		ShipmentCounts:        parseCounts(tree["shipmentCounts"]),
		ShipmentHistory:       parseHistory(tree["shipmentHistory"]),
		ShipmentVolumeHistory: parseVolumes(tree["shipmentVolumeHistory"]),
		Commodities:           str(tree["commodities"]),
		Contact:               parseContact(tree["contact"]),
		RiskAssessment:        parseRisk(tree["riskAssessment"]),
		TopTradePartners:      parsePartners(tree["topTradePartners"]),
		TopSuppliers:          parseSuppliers(tree["topSuppliers"]),
		TopCommodityFlows:     parseFlows(tree["topCommodityFlows"]),
		Sources:               parseSources(tree["sources"]),
	}
	if p.ImporterName == "" {
		p.ImporterName = fallbackName
	}
	return p, nil
}

func hasAny(tree map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := tree[k]; ok {
			return true
		}
	}
	return false
}

func parseCounts(v any) ShipmentCounts {
	m, _ := v.(map[string]any)
	return ShipmentCounts{
		LastMonth:   ParseCount(m["lastMonth"]),
		LastQuarter: ParseCount(m["lastQuarter"]),
		LastYear:    ParseCount(m["lastYear"]),
	}
}

func parseHistory(v any) []ShipmentEvent {
	items, _ := v.([]any)
	out := make([]ShipmentEvent, 0, len(items))
	for _, it := range objects(items) {
		out = append(out, ShipmentEvent{
			Date:            str(it["date"]),
			Shipper:         str(it["shipper"]),
			Origin:          str(it["origin"]),
			PortOfDischarge: str(it["portOfDischarge"]),
			Commodity:       str(it["commodity"]),
			Volume:          str(it["volume"]),
			Carrier:         str(it["carrier"]),
			HSCode:          str(it["hsCode"]),
			BOLNumber:       str(it["bolNumber"]),
			Source:          str(it["source"]),
		})
	}
	return out
}

func parseVolumes(v any) []ShipmentVolume {
	items, _ := v.([]any)
	out := make([]ShipmentVolume, 0, len(items))
	for _, it := range objects(items) {
		year, ok := num(it["year"])
		if !ok || year <= 0 {
			continue
		}
		volume, ok := num(it["volume"])
		if !ok {
			continue
		}
		out = append(out, ShipmentVolume{Year: int(year), Volume: volume})
	}
	return out
}

func parseContact(v any) ContactInfo {
	switch t := v.(type) {
	case string:
		return ContactFromString(t)
	case map[string]any:
		return ContactInfo{
			Phone:   str(t["phone"]),
			Email:   str(t["email"]),
			Website: str(t["website"]),
			Address: str(t["address"]),
		}
	default:
		return ContactInfo{}
	}
}

func parseRisk(v any) RiskAssessment {
	m, _ := v.(map[string]any)
	return RiskAssessment{
		FinancialStability:   str(m["financialStability"]),
		RegulatoryCompliance: str(m["regulatoryCompliance"]),
		GeopoliticalRisk:     str(m["geopoliticalRisk"]),
	}
}

func parsePartners(v any) []TradePartner {
	items, _ := v.([]any)
	out := make([]TradePartner, 0, len(items))
	for _, it := range objects(items) {
		out = append(out, TradePartner{
			Country:     str(it["country"]),
			TradeVolume: str(it["tradeVolume"]),
		})
	}
	return out
}

func parseSuppliers(v any) []TopSupplier {
	items, _ := v.([]any)
	out := make([]TopSupplier, 0, len(items))
	for _, it := range objects(items) {
		out = append(out, TopSupplier{
			Name:         str(it["name"]),
			Location:     str(it["location"]),
			Product:      str(it["product"]),
			LastShipment: str(it["lastShipment"]),
		})
	}
	return out
}

func parseFlows(v any) []CommodityFlow {
	items, _ := v.([]any)
	out := make([]CommodityFlow, 0, len(items))
	for _, it := range objects(items) {
		pct := str(it["percentage"])
		if _, isNum := it["percentage"].(float64); isNum {
			pct += "%"
		}
		out = append(out, CommodityFlow{
			Name:                  str(it["name"]),
			Percentage:            pct,
			AveragePrice:          str(it["averagePrice"]),
			MarketTrend:           str(it["marketTrend"]),
			TopSupplier:           str(it["topSupplier"]),
			PriceTrendData:        numList(it["priceTrendData"]),
			ImportVolumeTrendData: numList(it["importVolumeTrendData"]),
		})
	}
	return out
}

func parseSources(v any) []Source {
	items, _ := v.([]any)
	var out []Source
	for _, it := range objects(items) {
		if s, ok := NewSource(str(it["uri"]), str(it["title"])); ok {
			out = append(out, s)
		}
	}
	return out
}

func objects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func strList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := str(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func num(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func numList(v any) []float64 {
	items, _ := v.([]any)
	var out []float64
	for _, it := range items {
		if f, ok := num(it); ok {
			out = append(out, f)
		}
	}
	return out
}
