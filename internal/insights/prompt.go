package insights

import (
	"fmt"
	"strings"

	"github.com/thesavant42/arquivo-peaks/internal/models"
)

// MaxPromptSnippets caps how much peak evidence goes into a prompt
const MaxPromptSnippets = 5

const systemPrompt = "You are a concise historical analyst who explains search trends briefly with minimal text."

// Request is everything the generator needs to explain one analysis
type Request struct {
	Term         string
	TotalResults int
	PeakLabel    string // empty when there is no peak
	PeakCount    int
	Snippets     []models.PeakSnippet // evidence from the top peak, at most MaxPromptSnippets
}

// HasPeak reports whether the request describes a top peak
func (r Request) HasPeak() bool {
	return r.PeakLabel != ""
}

// RequestFrom builds a Request from a successful analysis
func RequestFrom(result models.AnalysisResult) Request {
	req := Request{
		Term:         result.Term,
		TotalResults: result.TotalResults,
	}

	top, ok := result.TopPeak()
	if !ok {
		return req
	}

	req.PeakLabel = top.DisplayLabel
	req.PeakCount = top.Count
	n := len(top.Snippets)
	if n > MaxPromptSnippets {
		n = MaxPromptSnippets
	}
	req.Snippets = top.Snippets[:n]
	return req
}

// BuildPrompt renders the user prompt for the top peak. Snippet context is
// included when available; otherwise the model is asked to rely on its own
// knowledge.
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The term %q peaked during %s with %d mentions.\n\n", req.Term, req.PeakLabel, req.PeakCount)

	if len(req.Snippets) > 0 {
		fmt.Fprintf(&b, "Based on these snippets from %s, briefly explain in 3 short points why this term peaked:\n\n", req.PeakLabel)
		for i, s := range req.Snippets {
			if i >= MaxPromptSnippets {
				break
			}
			fmt.Fprintf(&b, "%s - %s\n", PlainText(s.Title), PlainText(s.Snippet))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Based on your knowledge, briefly explain in 3 short points why this term might have peaked during this period.\n\n")
	}

	b.WriteString("Be extremely concise. Your entire response must be under 150 words. Format EXACTLY like this:\n")
	fmt.Fprintf(&b, "**Peak in %s**\n", req.PeakLabel)
	b.WriteString("1. [Short hypothesis why it peaked - one sentence]\n")
	b.WriteString("2. [Key event or context - one sentence]\n")
	b.WriteString("3. [How the term was discussed - one sentence]\n\n")
	b.WriteString("Each numbered point must be a complete sentence but should be as concise as possible.\n")

	return b.String()
}

// BasicInsights is the deterministic summary used when no model is available
// or the model call fails.
func BasicInsights(req Request) []string {
	if !req.HasPeak() {
		return []string{
			fmt.Sprintf("Found %d mentions of '%s' in the web archive with no significant peaks.", req.TotalResults, req.Term),
		}
	}

	return []string{fmt.Sprintf(
		"**Peak in %s**\n"+
			"1. The term '%s' saw its highest popularity in %s with %d mentions.\n"+
			"2. Found a total of %d mentions in the web archive.\n"+
			"3. Notable increase compared to typical monthly mentions.",
		req.PeakLabel, req.Term, req.PeakLabel, req.PeakCount, req.TotalResults,
	)}
}
