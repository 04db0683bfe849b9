// Package resolve implements the entity resolution engine: normalization,
// code extraction, fuzzy matching, identity cascades, and locality-aware
// clustering of registry records.
package resolve

import (
	"regexp"
	"strings"
)

// Compound professional-title patterns that span tokens and may carry
// internal dots or spaces ("Sp.Ort", "sp ortho", "M. Kes", "Cert.Orth").
// These have to run before the single-token stoplist because the dotted
// forms survive tokenization.
var compoundTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`\bsp[\s.]*ort[a-z]*\b`),
	regexp.MustCompile(`\bm[\s.]*kes\b`),
	regexp.MustCompile(`\bcert[\s.]*ort[a-z]*\b`),
}

// Single-word titles and degrees dropped from person names after
// punctuation is cleared.
var personTitles = map[string]struct{}{
	"drg": {}, "dr": {}, "drs": {}, "dra": {}, "sp": {}, "spd": {},
	"ort": {}, "orto": {}, "mm": {}, "mkes": {}, "cert": {}, "fisid": {},
	"kg": {}, "mha": {}, "sph": {}, "amd": {}, "skg": {},
}

// Facility-type prefix words stripped from clinic names as whole words.
var facilityPrefixRe = regexp.MustCompile(`\b(klinik|apotek|praktek|rs|rsia|rsu|dr|drg)\b`)

var (
	namePunctRe = regexp.MustCompile(`[.,\-]`)
	nonAlnumRe  = regexp.MustCompile(`[^\w\s]`)
	nonDigitRe  = regexp.MustCompile(`\D`)
)

// PersonName collapses spelling and title variance in a person name down to
// a comparison key. Returns "" when the input is empty or title-only.
func PersonName(s string) string {
	if s == "" {
		return ""
	}
	core := strings.ToLower(s)
	for _, re := range compoundTitleRes {
		core = re.ReplaceAllString(core, "")
	}
	core = namePunctRe.ReplaceAllString(core, " ")

	tokens := strings.Fields(core)
	kept := tokens[:0]
	for _, t := range tokens {
		if _, skip := personTitles[t]; !skip {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " ")
}

// Phone canonicalizes a phone number to bare digits with the domestic trunk
// prefix. Null-like values (empty, "null", "none", "nan") return "".
func Phone(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none", "nan":
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(s, "")
	if strings.HasPrefix(digits, "62") {
		digits = "0" + digits[2:]
	}
	return digits
}

// ProductName lowercases and strips everything except letters and digits.
// Digits stay: they are often meaningful model or spec numbers.
func ProductName(s string) string {
	if s == "" {
		return ""
	}
	core := nonAlnumRe.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(core), " ")
}

// FacilityName normalizes a clinic name by dropping facility-type prefix
// words and punctuation.
func FacilityName(s string) string {
	if s == "" {
		return ""
	}
	core := facilityPrefixRe.ReplaceAllString(strings.ToLower(s), " ")
	core = nonAlnumRe.ReplaceAllString(core, " ")
	return strings.Join(strings.Fields(core), " ")
}

// cityPlaceholder is the registry UI's unselected city picker value.
const cityPlaceholder = "pilih kota/kab"

// CityCode normalizes a clinic's raw city value. Blank values and the UI
// placeholder collapse to the "-" unknown bucket.
func CityCode(s string) string {
	city := strings.TrimSpace(s)
	if city == "" || strings.ToLower(city) == cityPlaceholder {
		return "-"
	}
	return city
}
