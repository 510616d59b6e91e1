package service

import (
	"strings"
)

// The contract creation form packs structured detail into the free-text
// items field. The markers below are what the frontend emits.
const (
	aiNotesMarker = "[ملاحظات AI]:"
	detailsMarker = "--- التفاصيل التعاقدية ---"

	labelStartDate    = "تاريخ البداية:"
	labelDuration     = "المدة:"
	labelPaymentTerms = "شروط الدفع:"
	labelExtraClauses = "البنود الإضافية المطلوبة:"
)

// ExtractedContext is the structured view of the items field. Scope is
// always populated; the rest are optional.
type ExtractedContext struct {
	Scope        string
	AINotes      string
	StartDate    string
	Duration     string
	PaymentTerms string
	ExtraClauses string
}

// ExtractContext parses the packed items text into an ExtractedContext.
// It never fails: malformed input degrades to an all-scope result.
func ExtractContext(items string) ExtractedContext {
	ctx := ExtractedContext{Scope: strings.TrimSpace(items)}
	if ctx.Scope == "" {
		return ctx
	}

	text := ctx.Scope

	// Optional AI notes line, expected as the first line
	firstLine, rest, _ := strings.Cut(text, "\n")
	if trimmed := strings.TrimSpace(firstLine); strings.HasPrefix(trimmed, aiNotesMarker) {
		ctx.AINotes = strings.TrimSpace(strings.TrimPrefix(trimmed, aiNotesMarker))
		text = strings.TrimLeft(rest, " \t\n")
	}

	before, after, found := strings.Cut(text, detailsMarker)
	if !found {
		ctx.Scope = strings.TrimSpace(text)
		return ctx
	}

	ctx.Scope = strings.TrimSpace(before)

	// Lines are matched by label prefix, order is irrelevant and
	// unrecognized lines are ignored.
	for _, rawLine := range strings.Split(after, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, labelStartDate):
			ctx.StartDate = strings.TrimSpace(strings.TrimPrefix(line, labelStartDate))
		case strings.HasPrefix(line, labelDuration):
			ctx.Duration = strings.TrimSpace(strings.TrimPrefix(line, labelDuration))
		case strings.HasPrefix(line, labelPaymentTerms):
			ctx.PaymentTerms = strings.TrimSpace(strings.TrimPrefix(line, labelPaymentTerms))
		case strings.HasPrefix(line, labelExtraClauses):
			ctx.ExtraClauses = strings.TrimSpace(strings.TrimPrefix(line, labelExtraClauses))
		}
	}

	return ctx
}
