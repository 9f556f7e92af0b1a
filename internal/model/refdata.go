package model

import (
	"regexp"
	"strings"
)

// Reference data for the transfer office. Locations, currencies and
// recovery modes are closed lists; values are stored upper-cased.

var locations = map[string]struct{}{
	"CONAKRY":   {},
	"LABE":      {},
	"KINDIA":    {},
	"KANKAN":    {},
	"MAMOU":     {},
	"BOKE":      {},
	"FARANAH":   {},
	"NZEREKORE": {},
	"SIGUIRI":   {},
	"DAKAR":     {},
	"BAMAKO":    {},
	"ABIDJAN":   {},
	"PARIS":     {},
	"BRUXELLES": {},
	"NEW YORK":  {},
}

var currencies = map[string]struct{}{
	"GNF": {},
	"XOF": {},
	"EUR": {},
	"USD": {},
}

var recoveryModes = map[string]struct{}{
	"ESPECES":      {},
	"ORANGE MONEY": {},
	"MTN MONEY":    {},
	"VIREMENT":     {},
}

// phonePatterns accepts numbers carrying one of the serviced
// international prefixes, or a bare local Guinean number.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\+224\d{8,9}$`),
	regexp.MustCompile(`^00224\d{8,9}$`),
	regexp.MustCompile(`^\+22[1356]\d{8,10}$`),
	regexp.MustCompile(`^\+33\d{9}$`),
	regexp.MustCompile(`^\+32\d{8,9}$`),
	regexp.MustCompile(`^\+1\d{10}$`),
	regexp.MustCompile(`^6\d{8}$`),
}

func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func ValidLocation(s string) bool {
	_, ok := locations[s]
	return ok
}

func ValidCurrency(s string) bool {
	_, ok := currencies[s]
	return ok
}

func ValidRecoveryMode(s string) bool {
	_, ok := recoveryModes[s]
	return ok
}

func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range phonePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
