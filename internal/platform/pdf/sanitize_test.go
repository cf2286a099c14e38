package pdf

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", Placeholder},
		{"whitespace only", "   \t  ", Placeholder},
		{"plain ascii", "Amoxicillin 500mg", "Amoxicillin 500mg"},
		{"accents stripped", "Dimitris Zachariadēs café", "Dimitris Zachariades cafe"},
		{"en dash", "2–3 times daily", "2-3 times daily"},
		{"em dash", "take—daily", "take-daily"},
		{"curly quotes", "‘q’ “d”", `'q' "d"`},
		{"non-breaking space", "a b", "a b"},
		{"unmappable replaced", "因為 fever", "?? fever"},
		{"placeholder passes through", Placeholder, Placeholder},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.in); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		Placeholder,
		"Dimitris–Christos",
		"ā é ǹ",
		"因為",
		"plain text stays put",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
