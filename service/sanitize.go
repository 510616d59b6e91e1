package service

import (
	"strings"
	"unicode/utf8"
)

// The ALLaM-2-7B deployments behind the chain are prone to repetition and
// runaway generation: they restart the contract, duplicate clauses, and
// append certificates or attachment boilerplate after the signature block.
// The lists below are tunable data, not invariants of the algorithm.

// outputArtifacts are literal tokens stripped wherever they occur.
var outputArtifacts = []string{
	"**", "```", "---", "###", "___",
	"[ملاحظة]", "[ملاحظات]", "[نهاية العقد]",
	"ملاحظة:", "ملاحظات:", "المرفقات:",
	"شهادة المنشأ:", "شهادة التأمين:",
}

// endingMarker is a phrase that signals the contract body has ended. keep is
// the number of characters retained after the marker so signature lines
// survive the cut.
type endingMarker struct {
	marker string
	keep   int
}

var endingMarkers = []endingMarker{
	{"والله ولي التوفيق", 300},
	{"تحرر هذا العقد من نسختين", 150},
	{"توقيع الطرف الأول", 200},
	{"التوقيعات:", 200},
	{"الطرف الأول:", 250},
}

// paragraphFingerprintLen is the number of leading characters used to detect
// repeated paragraphs.
const paragraphFingerprintLen = 50

// stopSequences is the stop list sent with chat-completion requests to cut
// generation before the sanitizer has to. Kept next to the marker data it
// mirrors.
var stopSequences = []string{
	"###",
	"---",
	"ملاحظة:",
	"ملاحظات:",
	"شهادة المنشأ",
	"شهادة التأمين",
	"المرفقات:",
	"نموذج",
	"**",
	"بسم الله الرحمن الرحيم\n\nبسم",
}

// Sanitize cleans generated contract text: strips formatting artifacts, cuts
// at the earliest proper ending, removes repeated lines and paragraphs, and
// trims trailing incomplete lines. Idempotent: Sanitize(Sanitize(x)) ==
// Sanitize(x).
func Sanitize(text string) string {
	if text == "" {
		return text
	}

	text = stripArtifacts(text)
	text = cutAtEnding(text)

	// Trimming an incomplete tail can shrink the final paragraph into a
	// fingerprint already seen earlier, so the dedup steps repeat until the
	// text stops changing. Every pass only removes content, so the loop
	// terminates.
	for {
		next := dropRepeatedLines(text)
		next = dropRepeatedParagraphs(next)
		next = trimIncompleteTail(next)
		if next == text {
			break
		}
		text = next
	}

	return strings.TrimSpace(text)
}

func stripArtifacts(text string) string {
	for _, artifact := range outputArtifacts {
		text = strings.ReplaceAll(text, artifact, "")
	}
	return text
}

// cutAtEnding finds every known ending marker, computes the candidate cut
// position after each (marker end + its allowance), and truncates at the
// smallest candidate. Positions and allowances are in runes, not bytes.
func cutAtEnding(text string) string {
	runes := []rune(text)
	best := len(runes)

	for _, m := range endingMarkers {
		byteIdx := strings.Index(text, m.marker)
		if byteIdx < 0 {
			continue
		}
		cut := utf8.RuneCountInString(text[:byteIdx]) + utf8.RuneCountInString(m.marker) + m.keep
		if cut > len(runes) {
			cut = len(runes)
		}
		if cut < best {
			best = cut
		}
	}

	return strings.TrimSpace(string(runes[:best]))
}

// dropRepeatedLines removes any non-empty line that exactly repeats the
// previous non-empty line and collapses runs of blank lines to one.
func dropRepeatedLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	prev := "\x00" // sentinel that matches no real line

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if stripped == "" {
			if prev != "" {
				cleaned = append(cleaned, "")
			}
			prev = ""
			continue
		}

		if stripped == prev {
			continue
		}

		cleaned = append(cleaned, line)
		prev = stripped
	}

	return strings.Join(cleaned, "\n")
}

// dropRepeatedParagraphs splits on blank lines and keeps only the first
// paragraph for each fingerprint (leading characters), preserving order.
func dropRepeatedParagraphs(text string) string {
	paragraphs := strings.Split(text, "\n\n")
	seen := make(map[string]bool, len(paragraphs))
	unique := make([]string, 0, len(paragraphs))

	for _, para := range paragraphs {
		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			continue
		}
		fingerprint := runePrefix(trimmed, paragraphFingerprintLen)
		if seen[fingerprint] {
			continue
		}
		seen[fingerprint] = true
		unique = append(unique, para)
	}

	return strings.Join(unique, "\n\n")
}

// trimIncompleteTail drops trailing lines that are empty or end with a
// colon, opening bracket, or opening parenthesis, the shape a truncated
// list item or placeholder leaves behind.
func trimIncompleteTail(text string) string {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" || strings.HasSuffix(last, ":") || strings.HasSuffix(last, "[") || strings.HasSuffix(last, "(") {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.Join(lines, "\n")
}

func runePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
