package region

import (
	"sort"

	"github.com/twpayne/go-geom"
)

// Region is one of the 51 coverage reference polygons (50 states plus
// DC). Immutable after fetch.
type Region struct {
	// FIPS is the zero-padded state FIPS code, e.g. "06".
	FIPS string
	// Name is the full state name.
	Name string
	// Abbr is the USPS abbreviation, e.g. "CA".
	Abbr string
	// Polygon holds every ring of the state outline, outer boundaries
	// and holes alike; islands appear as additional rings.
	Polygon *geom.Polygon
}

// stateInfo is the fixed reference entry for one state.
type stateInfo struct {
	name string
	abbr string
}

// states is the allowlist of coverage regions keyed by FIPS code.
// Territories (PR, GU, VI, AS, MP) are deliberately absent.
var states = map[string]stateInfo{
	"01": {"Alabama", "AL"},
	"02": {"Alaska", "AK"},
	"04": {"Arizona", "AZ"},
	"05": {"Arkansas", "AR"},
	"06": {"California", "CA"},
	"08": {"Colorado", "CO"},
	"09": {"Connecticut", "CT"},
	"10": {"Delaware", "DE"},
	"11": {"District of Columbia", "DC"},
	"12": {"Florida", "FL"},
	"13": {"Georgia", "GA"},
	"15": {"Hawaii", "HI"},
	"16": {"Idaho", "ID"},
	"17": {"Illinois", "IL"},
	"18": {"Indiana", "IN"},
	"19": {"Iowa", "IA"},
	"20": {"Kansas", "KS"},
	"21": {"Kentucky", "KY"},
	"22": {"Louisiana", "LA"},
	"23": {"Maine", "ME"},
	"24": {"Maryland", "MD"},
	"25": {"Massachusetts", "MA"},
	"26": {"Michigan", "MI"},
	"27": {"Minnesota", "MN"},
	"28": {"Mississippi", "MS"},
	"29": {"Missouri", "MO"},
	"30": {"Montana", "MT"},
	"31": {"Nebraska", "NE"},
	"32": {"Nevada", "NV"},
	"33": {"New Hampshire", "NH"},
	"34": {"New Jersey", "NJ"},
	"35": {"New Mexico", "NM"},
	"36": {"New York", "NY"},
	"37": {"North Carolina", "NC"},
	"38": {"North Dakota", "ND"},
	"39": {"Ohio", "OH"},
	"40": {"Oklahoma", "OK"},
	"41": {"Oregon", "OR"},
	"42": {"Pennsylvania", "PA"},
	"44": {"Rhode Island", "RI"},
	"45": {"South Carolina", "SC"},
	"46": {"South Dakota", "SD"},
	"47": {"Tennessee", "TN"},
	"48": {"Texas", "TX"},
	"49": {"Utah", "UT"},
	"50": {"Vermont", "VT"},
	"51": {"Virginia", "VA"},
	"53": {"Washington", "WA"},
	"54": {"West Virginia", "WV"},
	"55": {"Wisconsin", "WI"},
	"56": {"Wyoming", "WY"},
}

// Count is the size of the reference region set.
const Count = 51

// IsCoverageState reports whether the FIPS code belongs to the
// reference set.
func IsCoverageState(fips string) bool {
	_, ok := states[fips]
	return ok
}

// Lookup returns the reference name and abbreviation for a FIPS code.
func Lookup(fips string) (name, abbr string, ok bool) {
	info, found := states[fips]
	if !found {
		return "", "", false
	}
	return info.name, info.abbr, true
}

// AllFIPS returns the sorted allowlist of FIPS codes.
func AllFIPS() []string {
	codes := make([]string, 0, len(states))
	for code := range states {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
