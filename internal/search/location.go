package search

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultLocation searches the whole country and disables the address filter.
const DefaultLocation = "Italia"

// cityToProvince maps a lowercase city name to its two-letter province code.
// Cities missing here can only match by name.
var cityToProvince = map[string]string{
	"milano": "MI", "roma": "RM", "torino": "TO", "napoli": "NA",
	"bologna": "BO", "firenze": "FI", "genova": "GE", "venezia": "VE",
	"palermo": "PA", "bari": "BA", "catania": "CT", "verona": "VR",
	"padova": "PD", "brescia": "BS", "bergamo": "BG", "modena": "MO",
	"parma": "PR", "reggio emilia": "RE", "perugia": "PG", "livorno": "LI",
	"cagliari": "CA", "trieste": "TS", "ancona": "AN", "lecce": "LE",
	"como": "CO", "varese": "VA", "monza": "MB", "pavia": "PV",
	"cremona": "CR", "mantova": "MN", "lodi": "LO", "sondrio": "SO",
	"lecco": "LC", "rimini": "RN", "pesaro": "PU", "ravenna": "RA",
	"piacenza": "PC", "ferrara": "FE", "forlì": "FC", "cesena": "FC",
	"trento": "TN", "bolzano": "BZ", "udine": "UD", "pordenone": "PN",
	"vicenza": "VI", "treviso": "TV", "belluno": "BL", "rovigo": "RO",
	"alessandria": "AL", "asti": "AT", "cuneo": "CN", "novara": "NO",
	"vercelli": "VC", "biella": "BI", "savona": "SV", "imperia": "IM",
	"la spezia": "SP", "lucca": "LU", "pisa": "PI", "arezzo": "AR",
	"siena": "SI", "grosseto": "GR", "pistoia": "PT", "prato": "PO",
	"massa": "MS", "terni": "TR", "macerata": "MC", "ascoli piceno": "AP",
	"teramo": "TE", "pescara": "PE", "chieti": "CH", "l'aquila": "AQ",
	"campobasso": "CB", "isernia": "IS", "caserta": "CE", "salerno": "SA",
	"avellino": "AV", "benevento": "BN", "foggia": "FG", "taranto": "TA",
	"brindisi": "BR", "potenza": "PZ", "matera": "MT", "cosenza": "CS",
	"catanzaro": "CZ", "reggio calabria": "RC", "crotone": "KR", "vibo valentia": "VV",
	"messina": "ME", "siracusa": "SR", "ragusa": "RG", "agrigento": "AG",
	"caltanissetta": "CL", "enna": "EN", "trapani": "TP",
	"sassari": "SS", "nuoro": "NU", "oristano": "OR",
}

// Casers are not safe for concurrent use, so each call builds its own.
func lower(s string) string { return cases.Lower(language.Italian).String(s) }
func upper(s string) string { return cases.Upper(language.Italian).String(s) }

// filterApplies reports whether a candidate address is checked against the
// requested location. Unknown addresses and country-wide searches pass.
func filterApplies(address, location string) bool {
	if address == "" || strings.TrimSpace(location) == "" {
		return false
	}
	return lower(strings.TrimSpace(location)) != lower(DefaultLocation)
}

// locationMatches reports whether address lies in location. Any location word
// longer than two characters found in the address is a match. With
// includeProvince, an address carrying the city's province code (" MI" at
// the end, " MI ", "(MI)" or " MI,") also matches.
func locationMatches(address, location string, includeProvince bool) bool {
	loc := lower(strings.TrimSpace(location))
	addr := lower(address)

	for _, w := range strings.Fields(loc) {
		if utf8.RuneCountInString(w) > 2 && strings.Contains(addr, w) {
			return true
		}
	}
	if !includeProvince {
		return false
	}

	code, ok := cityToProvince[loc]
	if !ok {
		return false
	}
	up := upper(address)
	return strings.HasSuffix(up, " "+code) ||
		strings.Contains(up, " "+code+" ") ||
		strings.Contains(up, "("+code+")") ||
		strings.Contains(up, " "+code+",")
}
