package scrape

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/importer-intel/pkg/jina"
)

// Deps carries what NewSources needs to build each source.
type Deps struct {
	Fetcher  Fetcher
	Jina     jina.Client
	JinaSite string
	// URLs overrides upstream URLs by source key.
	URLs map[string]string
}

// NewSources builds sources for keys in order. Unknown keys are an error;
// jina is skipped with a warning when no client is configured.
func NewSources(keys []string, d Deps) ([]Source, error) {
	out := make([]Source, 0, len(keys))
	for _, key := range keys {
		u := d.URLs[key]
		switch key {
		case SourcePortExaminer:
			out = append(out, NewPortExaminer(d.Fetcher, u))
		case SourceImportYeti:
			out = append(out, NewImportYeti(d.Fetcher, u))
		case SourceAlibaba:
			out = append(out, NewAlibabaBuyers(d.Fetcher, u))
		case SourceIndiaCustoms:
			out = append(out, NewIndiaCustoms(d.Fetcher, u))
		case SourcePortOfLA:
			out = append(out, NewPortOfLA(d.Fetcher, u))
		case SourceJina:
			if d.Jina == nil {
				zap.L().Warn("scrape: jina source configured without an API key, skipping")
				continue
			}
			out = append(out, NewJinaSearch(d.Jina, d.JinaSite))
		case SourceUSITC:
			out = append(out, NewUSITC())
		case SourceCensus:
			out = append(out, NewCensus())
		default:
			return nil, eris.Errorf("scrape: unknown source %q", key)
		}
	}
	return out, nil
}
