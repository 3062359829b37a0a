package intel

import (
	"github.com/tidwall/gjson"

	"github.com/sells-group/importer-intel/internal/model"
)

const groundingChunksPath = "candidates.0.groundingMetadata.groundingChunks"

// ExtractSources lists the web citations in a raw provider payload. Chunks
// without a web reference or URI are skipped; a payload missing any level
// of the grounding path yields an empty list.
func ExtractSources(raw []byte) []model.Source {
	out := []model.Source{}
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return out
	}
	chunks := gjson.GetBytes(raw, groundingChunksPath)
	if !chunks.IsArray() {
		return out
	}
	chunks.ForEach(func(_, chunk gjson.Result) bool {
		web := chunk.Get("web")
		if !web.IsObject() {
			return true
		}
		if s, ok := model.NewSource(web.Get("uri").String(), web.Get("title").String()); ok {
			out = append(out, s)
		}
		return true
	})
	return out
}
