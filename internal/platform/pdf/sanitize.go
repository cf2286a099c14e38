package pdf

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Placeholder stands in for absent or unprintable text on rendered documents.
const Placeholder = "—"

var punctReplacer = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	" ", " ", // non-breaking space
)

// Sanitize reduces arbitrary input to text the document fonts can measure and
// draw. Accented letters lose their marks, typographic punctuation becomes
// its ASCII equivalent, and anything still outside printable ASCII turns into
// '?'. Blank input yields the em dash placeholder. The function is a fixed
// point: feeding its output back in returns the same string.
func Sanitize(s string) string {
	t := strings.TrimSpace(s)
	if t == "" || t == Placeholder {
		return Placeholder
	}

	// Compatibility decomposition, then drop combining marks so "ā" -> "a".
	decomposed := norm.NFKD.String(t)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.M, r) {
			continue
		}
		b.WriteRune(r)
	}

	t = punctReplacer.Replace(b.String())

	var out strings.Builder
	out.Grow(len(t))
	for _, r := range t {
		if r == '\t' || r == '\n' || r == '\r' || (r >= 0x20 && r <= 0x7E) {
			out.WriteRune(r)
		} else {
			out.WriteByte('?')
		}
	}

	t = strings.TrimSpace(out.String())
	if t == "" {
		return Placeholder
	}
	return t
}
