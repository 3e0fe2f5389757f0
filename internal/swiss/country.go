package swiss

import "strings"

// countryNames maps the free-text country spellings seen in client records
// (French, German, Italian, Spanish, English) to ISO-2 codes. Anything
// unmapped defaults to CH: the customer base is Swiss.
var countryNames = map[string]string{
	"suisse":      "CH",
	"schweiz":     "CH",
	"svizzera":    "CH",
	"suiza":       "CH",
	"switzerland": "CH",
	"france":      "FR",
	"frankreich":  "FR",
	"francia":     "FR",
	"allemagne":   "DE",
	"deutschland": "DE",
	"germania":    "DE",
	"alemania":    "DE",
	"germany":     "DE",
	"italie":      "IT",
	"italien":     "IT",
	"italia":      "IT",
	"italy":       "IT",
}

// CountryCode normalizes a free-text country name to its ISO-2 code.
// Already-ISO two-letter inputs pass through uppercased.
func CountryCode(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return "CH"
	}
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	if code, ok := countryNames[strings.ToLower(s)]; ok {
		return code
	}
	return "CH"
}
