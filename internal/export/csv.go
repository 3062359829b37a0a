package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/importer-intel/internal/model"
)

var summaryHeader = []string{"importerName", "location", "primaryCommodities", "lastShipmentDate", "contactInformation", "sources"}

// section is one titled table of a flattened profile. CSV writes sections
// one after another separated by a blank line; XLSX gives each its own sheet.
type section struct {
	title  string
	header []string
	rows   [][]string
}

func profileSections(p model.ParsedImporterData) []section {
	overview := section{
		title:  "Overview",
		header: []string{"field", "value"},
		rows: [][]string{
			{"importerName", p.ImporterName},
			{"location", p.Location},
			{"lastShipmentDate", p.LastShipmentDate},
			{"information", p.Information},
			{"shipmentActivity", p.ShipmentActivity},
			{"commodities", p.Commodities},
			{"shipmentsLastMonth", p.ShipmentCounts.LastMonth.String()},
			{"shipmentsLastQuarter", p.ShipmentCounts.LastQuarter.String()},
			{"shipmentsLastYear", p.ShipmentCounts.LastYear.String()},
			{"phone", p.Contact.Phone},
			{"email", p.Contact.Email},
			{"website", p.Contact.Website},
			{"address", p.Contact.Address},
			{"financialStability", p.RiskAssessment.FinancialStability},
			{"regulatoryCompliance", p.RiskAssessment.RegulatoryCompliance},
			{"geopoliticalRisk", p.RiskAssessment.GeopoliticalRisk},
		},
	}
	for _, in := range p.Insights {
		overview.rows = append(overview.rows, []string{"insight", in})
	}

	shipments := section{
		title:  "Shipments",
		header: []string{"date", "shipper", "origin", "portOfDischarge", "commodity", "volume", "carrier", "hsCode", "bolNumber", "source"},
	}
	for _, e := range p.ShipmentHistory {
		shipments.rows = append(shipments.rows, []string{
			e.Date, e.Shipper, e.Origin, e.PortOfDischarge, e.Commodity, e.Volume, e.Carrier, e.HSCode, e.BOLNumber, e.Source,
		})
	}

	volumes := section{title: "Volumes", header: []string{"year", "volume"}}
	for _, v := range model.SortVolumes(p.ShipmentVolumeHistory) {
		volumes.rows = append(volumes.rows, []string{strconv.Itoa(v.Year), strconv.FormatFloat(v.Volume, 'f', -1, 64)})
	}

	partners := section{title: "Trade Partners", header: []string{"country", "tradeVolume"}}
	for _, tp := range p.TopTradePartners {
		partners.rows = append(partners.rows, []string{tp.Country, tp.TradeVolume})
	}

	suppliers := section{title: "Suppliers", header: []string{"name", "location", "product", "lastShipment"}}
	for _, s := range p.TopSuppliers {
		suppliers.rows = append(suppliers.rows, []string{s.Name, s.Location, s.Product, s.LastShipment})
	}

	flows := section{title: "Commodity Flows", header: []string{"name", "percentage", "averagePrice", "marketTrend", "topSupplier"}}
	for _, f := range p.TopCommodityFlows {
		flows.rows = append(flows.rows, []string{f.Name, f.Percentage, f.AveragePrice, f.MarketTrend, f.TopSupplier})
	}

	sources := section{title: "Sources", header: []string{"uri", "title"}}
	for _, s := range p.Sources {
		sources.rows = append(sources.rows, []string{s.URI, s.Title})
	}

	return []section{overview, shipments, volumes, partners, suppliers, flows, sources}
}

func writeProfileCSV(w io.Writer, p model.ParsedImporterData) error {
	cw := csv.NewWriter(w)
	for i, s := range profileSections(p) {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return eris.Wrap(err, "export: write csv")
			}
		}
		if err := cw.Write([]string{"# " + s.title}); err != nil {
			return eris.Wrap(err, "export: write csv")
		}
		if err := cw.Write(s.header); err != nil {
			return eris.Wrap(err, "export: write csv")
		}
		if err := cw.WriteAll(s.rows); err != nil {
			return eris.Wrap(err, "export: write csv")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func summaryRow(s model.ImporterSummary) []string {
	uris := make([]string, 0, len(s.Sources))
	for _, src := range s.Sources {
		uris = append(uris, src.URI)
	}
	return []string{s.ImporterName, s.Location, s.PrimaryCommodities, s.LastShipmentDate, s.ContactInformation, strings.Join(uris, " ")}
}

func writeSummariesCSV(w io.Writer, summaries []model.ImporterSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return eris.Wrap(err, "export: write csv")
	}
	for _, s := range summaries {
		if err := cw.Write(summaryRow(s)); err != nil {
			return eris.Wrap(err, "export: write csv")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
