package textnorm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Beneficiary categories produced by NormalizeBeneficiary.
const (
	BeneficiaryExecutives = "cadres_superieurs"
	BeneficiaryRetirees   = "retraites"
	BeneficiaryActive     = "actifs"
	BeneficiaryDependents = "ayants_droit"
	BeneficiaryAll        = "tous"
	BeneficiaryOther      = "autre"
)

var (
	pricePeriodRe  = regexp.MustCompile(`(?i)/*\s*(mois|month|mensuel|an|année).*`)
	priceNumberRe  = regexp.MustCompile(`[\d\s]+`)
	priceInTextRe  = regexp.MustCompile(`(?i)([\d\s]+)\s*da\b`)
	speedNumberRe  = regexp.MustCompile(`[\d.,]+`)
	speedInTextRe  = regexp.MustCompile(`(?i)([\d.,]+)\s*(gbps|mbps|gbit|mbit)`)
	anyNumberRe    = regexp.MustCompile(`\d+`)
)

// ParsePrice converts a price string to dinars. "1 100 DA" parses to 1100,
// "Gratuit (0 DA)" to 0. Returns ok=false when no amount is present.
func ParsePrice(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.ToLower(s)

	if strings.Contains(s, "gratuit") {
		return 0, true
	}

	s = pricePeriodRe.ReplaceAllString(s, "")

	for _, numStr := range priceNumberRe.FindAllString(s, -1) {
		clean := strings.ReplaceAll(numStr, " ", "")
		if clean == "" {
			continue
		}
		if v, err := strconv.Atoi(clean); err == nil {
			return v, true
		}
	}
	return 0, false
}

// ParseSpeed converts a bandwidth string to Mbps. "1.5 Gbps" parses to 1500.
// A bare number below 10 is assumed to be Gbps, larger values Mbps.
func ParseSpeed(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	s = strings.ToLower(s)

	match := speedNumberRe.FindString(s)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0, false
	}

	switch {
	case strings.Contains(s, "gbps") || strings.Contains(s, "gbit") || strings.Contains(s, "gb/s"):
		return value * 1000, true
	case strings.Contains(s, "mbps") || strings.Contains(s, "mbit") || strings.Contains(s, "mb/s"):
		return value, true
	case strings.Contains(s, "kbps") || strings.Contains(s, "kbit") || strings.Contains(s, "kb/s"):
		return value / 1000, true
	case value < 10:
		// No unit and small value, almost certainly Gbps
		return value * 1000, true
	default:
		return value, true
	}
}

// NormalizeBeneficiary maps a free-text beneficiary description onto a
// canonical category.
func NormalizeBeneficiary(s string) string {
	if s == "" {
		return BeneficiaryOther
	}
	text := strings.ToLower(s)

	switch {
	case strings.Contains(text, "cadres supérieurs"),
		strings.Contains(text, "cadres superieurs"),
		strings.Contains(text, "cadre supérieur"):
		return BeneficiaryExecutives
	case strings.Contains(text, "retraité") &&
		!strings.Contains(text, "personnel") && !strings.Contains(text, "actif"):
		return BeneficiaryRetirees
	case (strings.Contains(text, "actif") || strings.Contains(text, "activité")) &&
		!strings.Contains(text, "retraité"):
		return BeneficiaryActive
	case strings.Contains(text, "ayant") && strings.Contains(text, "droit"):
		return BeneficiaryDependents
	case strings.Contains(text, "tous"),
		strings.Contains(text, "personnel") && strings.Contains(text, "retraité"):
		return BeneficiaryAll
	case strings.Contains(text, "personnel"),
		strings.Contains(text, "employé"),
		strings.Contains(text, "salarié"):
		return BeneficiaryActive
	default:
		return BeneficiaryOther
	}
}

// beneficiarySynonyms maps canonical categories to surface forms found in queries.
var beneficiarySynonyms = map[string][]string{
	BeneficiaryExecutives: {"cadres supérieurs", "cadres superieurs", "cadre supérieur", "dirigeants", "directeurs", "responsables"},
	BeneficiaryRetirees:   {"retraités", "retraites", "retraité", "en retraite", "anciens employés", "pension"},
	BeneficiaryActive:     {"personnel actif", "actifs", "en activité", "employés", "salariés", "travailleurs"},
	BeneficiaryDependents: {"ayants droit", "ayant droit", "action sociale", "famille"},
	BeneficiaryAll:        {"tous", "tout le personnel", "tous bénéficiaires", "personnel et retraités"},
}

// QueryBeneficiary detects the beneficiary category mentioned in a query.
// Returns "" when none is mentioned.
func QueryBeneficiary(query string) string {
	lower := strings.ToLower(query)
	for category, synonyms := range beneficiarySynonyms {
		for _, syn := range synonyms {
			if strings.Contains(lower, syn) {
				return category
			}
		}
	}
	return ""
}

// NumericValues holds the structured numbers extracted from a query.
type NumericValues struct {
	Prices     []int
	SpeedsMbps []float64
	RawNumbers []int
}

// ExtractNumericValues pulls prices (number + "DA") and speeds (number + unit)
// out of a query. Prices and speeds must never be matched as raw text.
func ExtractNumericValues(text string) NumericValues {
	var nv NumericValues

	for _, m := range priceInTextRe.FindAllStringSubmatch(text, -1) {
		if p, ok := ParsePrice(m[1] + " DA"); ok {
			nv.Prices = append(nv.Prices, p)
		}
	}

	for _, m := range speedInTextRe.FindAllStringSubmatch(text, -1) {
		if s, ok := ParseSpeed(m[1] + " " + m[2]); ok {
			nv.SpeedsMbps = append(nv.SpeedsMbps, s)
		}
	}

	for _, n := range anyNumberRe.FindAllString(text, -1) {
		if v, err := strconv.Atoi(n); err == nil {
			nv.RawNumbers = append(nv.RawNumbers, v)
		}
	}

	return nv
}

// commonPrices and commonSpeeds are the catalog's known price points and
// bandwidth tiers, used to snap near-miss query values (typo tolerance).
var (
	commonPrices = []int{0, 800, 1000, 1100, 1200, 1300, 1400, 1500, 1600, 1680,
		1890, 2000, 2100, 2400, 2520, 2600, 3000, 3500, 3600}
	commonSpeeds = []float64{15, 20, 30, 50, 60, 100, 120, 240, 300, 480, 500, 600,
		1000, 1200, 1500}
)

// SnapPrice returns the closest catalog price within tolerance (fraction of
// the query value), or the input unchanged.
func SnapPrice(price int, tolerance float64) int {
	closest := price
	minDiff := math.Inf(1)
	for _, common := range commonPrices {
		diff := math.Abs(float64(common - price))
		if diff < minDiff && diff <= float64(price)*tolerance {
			minDiff = diff
			closest = common
		}
	}
	return closest
}

// SnapSpeed returns the closest catalog speed within tolerance, or the input unchanged.
func SnapSpeed(speed, tolerance float64) float64 {
	closest := speed
	minDiff := math.Inf(1)
	for _, common := range commonSpeeds {
		diff := math.Abs(common - speed)
		if diff < minDiff && diff <= speed*tolerance {
			minDiff = diff
			closest = common
		}
	}
	return closest
}
