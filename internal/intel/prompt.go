package intel

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/importer-intel/internal/model"
)

const searchPromptTmpl = `High-precision Consignee (CNEE) search: %s
Identify legal US importers of record matching the criteria. Ground the answer in Port Examiner, USITC DataWeb and US Census trade data.
Return only JSON: { "importers": [ { "importerName": "Legal Name", "location": "City, State", "primaryCommodities": "...", "lastShipmentDate": "YYYY-MM-DD" } ] }`

const similarPromptTmpl = `Major competitors and peer importers for: %q.
Return only JSON: { "importers": [ { "importerName": "Legal Name", "location": "City, State", "primaryCommodities": "...", "lastShipmentDate": "YYYY-MM-DD" } ] }`

const detailSchema = `{
  "importerName": %q,
  "location": "...",
  "lastShipmentDate": "YYYY-MM-DD",
  "information": "Brief analytical audit summary.",
  "insights": ["Strategic insight", "Risk insight", "Competitive insight"],
  "shipmentCounts": { "lastMonth": 0, "lastQuarter": 0, "lastYear": 0 },
  "shipmentHistory": [ { "date": "YYYY-MM-DD", "shipper": "...", "origin": "...", "commodity": "...", "volume": "...", "carrier": "...", "bolNumber": "...", "hsCode": "...", "portOfDischarge": "..." } ],
  "shipmentVolumeHistory": [ { "year": 2024, "volume": 1200 }, { "year": 2023, "volume": 1100 } ],
  "commodities": "...",
  "contact": { "phone": "...", "email": "...", "website": "...", "address": "..." },
  "riskAssessment": { "financialStability": "...", "regulatoryCompliance": "...", "geopoliticalRisk": "..." },
  "topTradePartners": [ { "country": "...", "tradeVolume": "..." } ],
  "topSuppliers": [ { "name": "...", "location": "...", "product": "..." } ],
  "topCommodityFlows": [ { "name": "...", "percentage": "..." } ]
}`

// searchPrompt embeds every non-blank filter field.
func searchPrompt(f model.SearchFilters) string {
	var parts []string
	if q := strings.TrimSpace(f.Query); q != "" {
		parts = append(parts, fmt.Sprintf("%q", q))
	}
	if c := strings.TrimSpace(f.City); c != "" {
		parts = append(parts, "City: "+c)
	}
	if s := strings.TrimSpace(f.State); s != "" {
		parts = append(parts, "State: "+s)
	}
	if i := strings.TrimSpace(f.Industry); i != "" {
		parts = append(parts, "Sector: "+i)
	}
	return fmt.Sprintf(searchPromptTmpl, strings.Join(parts, " "))
}

func similarPrompt(seed string) string {
	return fmt.Sprintf(similarPromptTmpl, strings.TrimSpace(seed))
}

// detailPrompt builds the deep-audit prompt. hints is truncated to limit.
func detailPrompt(name string, summary *model.ImporterSummary, hints []model.RawLead, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deep-audit Consignee (CNEE): %q.\n", name)
	b.WriteString("STRICT FILTER: only include manifest records where this exact entity is the consignee. Include related corporate entities only if verified.\n")
	if summary != nil {
		fmt.Fprintf(&b, "Additional context: known location %s; key commodities %s.\n", summary.Location, summary.PrimaryCommodities)
	}
	b.WriteString("\nReturn only JSON matching this schema:\n")
	fmt.Fprintf(&b, detailSchema, name)
	b.WriteString("\n\nRaw manifest hints: ")
	b.WriteString(hintsJSON(hints, limit))
	b.WriteString("\n")
	return b.String()
}

func hintsJSON(hints []model.RawLead, limit int) string {
	if len(hints) > limit {
		hints = hints[:limit]
	}
	if hints == nil {
		hints = []model.RawLead{}
	}
	b, err := json.Marshal(hints)
	if err != nil {
		return "[]"
	}
	return string(b)
}
