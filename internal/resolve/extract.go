package resolve

import (
	"regexp"
	"strings"
)

var (
	// Role prefix immediately followed by digits, tolerating separators:
	// "PS100", "ps 100", "dc-214", "am.12".
	repCodeRe = regexp.MustCompile(`\b(ps|dc|am|ts|cr|ac|sm|hr)[\s\-.]*(\d+)\b`)

	// Maximal digit runs bounded by word edges.
	digitRunRe = regexp.MustCompile(`\b\d+\b`)

	// Role prefixes and honorifics stripped when deriving the bare name key.
	rolePrefixRe = regexp.MustCompile(`\b(ps|dc|am|ts|cr|ac|sm|hr|mr|ms|mrs|dr)\b`)

	digitsRe  = regexp.MustCompile(`\d+`)
	nonWordRe = regexp.MustCompile(`[\W_]`)
)

// RepCode extracts a structured salesperson code (prefix+digits, no
// separators) from raw text. Returns "" when no code is present.
func RepCode(text string) string {
	m := repCodeRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return ""
	}
	return m[1] + m[2]
}

// LooseDigits returns every word-bounded digit run in the text, in order.
// "214/Bryan" yields ["214"]; "100 and 200" yields both.
func LooseDigits(text string) []string {
	return digitRunRe.FindAllString(text, -1)
}

// PersonCore strips role prefixes, digits, and all non-word characters,
// leaving the bare name used as the last-resort comparison key. May be "".
func PersonCore(text string) string {
	if text == "" {
		return ""
	}
	core := strings.ToLower(text)
	core = rolePrefixRe.ReplaceAllString(core, " ")
	core = digitsRe.ReplaceAllString(core, " ")
	core = nonWordRe.ReplaceAllString(core, " ")
	return strings.Join(strings.Fields(core), " ")
}
