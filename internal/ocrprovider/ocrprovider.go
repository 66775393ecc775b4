// Package ocrprovider defines the OCR collaborator contract consumed by
// the Worker (§6.1) and an HTTP-based reference client, grounded on the
// teacher's internal/llm/openai/client.go request/response shape.
package ocrprovider

import "context"

// Tokens carries the usage figures a conversion call reports.
type Tokens struct {
	Prompt     int
	Completion int
	Total      int
}

// Result is what Convert must either fully populate or fail producing —
// §6.1 is explicit that partial results are not tolerated.
type Result struct {
	Pages       []string
	Model       string
	Temperature float64
	Tokens      Tokens
}

// Markdown joins the extracted pages with a page-break marker.
func (r Result) Markdown() string {
	out := ""
	for i, p := range r.Pages {
		if i > 0 {
			out += "\n\n---\n\n"
		}
		out += p
	}
	return out
}

// Provider is the narrow OCR contract named in §6.1.
type Provider interface {
	Convert(ctx context.Context, data []byte, mimeType, filename string) (Result, error)
}
