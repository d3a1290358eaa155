package retrieval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/ragcontext-mcp/pkg/types"
)

// toPassages converts ranked hits into numbered passages. Index is
// 1-based and matches the citation marker in the context block.
func toPassages(hits []types.Retrieved) []types.Passage {
	passages := make([]types.Passage, len(hits))
	for i, h := range hits {
		page := 0
		if p, err := strconv.Atoi(h.Meta["page"]); err == nil {
			page = p
		}
		passages[i] = types.Passage{
			Index:  i + 1,
			Source: h.Meta["source"],
			Page:   page,
			Text:   h.Text,
		}
	}
	return passages
}

// BuildContextBlock renders passages as a prompt-ready context block.
// Each passage carries a [n] marker and its source so the model can
// cite what it used:
//
//	[1] (manual.pdf, page 3)
//	The fuse box is behind the left panel.
func BuildContextBlock(passages []types.Passage) string {
	if len(passages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch {
		case p.Source != "" && p.Page > 0:
			fmt.Fprintf(&b, "[%d] (%s, page %d)\n", p.Index, p.Source, p.Page)
		case p.Source != "":
			fmt.Fprintf(&b, "[%d] (%s)\n", p.Index, p.Source)
		default:
			fmt.Fprintf(&b, "[%d]\n", p.Index)
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
