package query

import (
	"sort"
	"strings"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// EntityMatch is one product family the question explicitly names.
type EntityMatch struct {
	// Family is the product family code, e.g. "idoom_fibre".
	Family string
	// Confidence grades the match: exact alias phrase, all alias tokens,
	// or a partial token overlap.
	Confidence float64
}

const (
	confidenceExactPhrase = 0.95
	confidenceAllTokens   = 0.85
	confidencePartial     = 0.6

	// hardFilterThreshold is the minimum confidence for a single detected
	// entity to restrict the candidate set on its own.
	hardFilterThreshold = 0.85
)

type entityAliases struct {
	family string
	// phrases are full normalized alias strings matched by substring.
	phrases []string
	// tokens are the distinctive tokens of the family name.
	tokens []string
}

// EntityDetector matches query text against the product families present in
// the corpus and their bilingual aliases.
type EntityDetector struct {
	entities []entityAliases
}

// staticAliases supplements the family codes with names users actually type.
var staticAliases = map[string][]string{
	"idoom_fibre":   {"idoom fibre", "fibre optique", "الألياف البصرية"},
	"idoom_adsl":    {"idoom adsl", "adsl"},
	"idoom_vdsl":    {"idoom vdsl", "vdsl"},
	"idoom_4g_lte":  {"idoom 4g", "4g lte", "الجيل الرابع"},
	"ont_wifi_6":    {"ont wifi 6", "wifi 6", "واي فاي 6"},
	"gamers_offer":  {"offre gamers", "idoom gamers"},
	"tax_stamp":     {"timbre fiscal", "الطابع الجبائي"},
}

// NewEntityDetector builds the alias table from the distinct product families
// in the corpus.
func NewEntityDetector(docs []document.Document) *EntityDetector {
	seen := make(map[string]struct{})
	entities := make([]entityAliases, 0, 8)

	for _, doc := range docs {
		family := doc.ProductFamily
		if family == "" {
			continue
		}
		if _, ok := seen[family]; ok {
			continue
		}
		seen[family] = struct{}{}

		phrase := strings.ReplaceAll(family, "_", " ")
		e := entityAliases{family: family}
		// Aliases are normalized the same way queries are, so Arabic letter
		// variants line up at match time.
		for _, p := range append([]string{phrase}, staticAliases[family]...) {
			e.phrases = append(e.phrases, textnorm.Normalize(p))
		}
		for _, t := range textnorm.Tokenize(phrase) {
			if !genericEntityToken(t) {
				e.tokens = append(e.tokens, t)
			}
		}
		entities = append(entities, e)
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].family < entities[j].family })
	return &EntityDetector{entities: entities}
}

// genericEntityToken filters tokens shared by most families, which cannot
// identify one on their own.
func genericEntityToken(t string) bool {
	switch t {
	case "idoom", "offer", "offre", "internet", "pack":
		return true
	}
	return false
}

// Detect returns every family the normalized query names, best match first.
func (d *EntityDetector) Detect(normQuery string, tokens []string) []EntityMatch {
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	matches := make([]EntityMatch, 0, 2)
	for _, e := range d.entities {
		conf := matchEntity(&e, normQuery, tokenSet)
		if conf > 0 {
			matches = append(matches, EntityMatch{Family: e.family, Confidence: conf})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Confidence > matches[j].Confidence })
	return matches
}

// HardFilter returns the single family that should restrict candidates, or
// "" when the question names zero or several entities.
func (d *EntityDetector) HardFilter(matches []EntityMatch) string {
	strong := make([]EntityMatch, 0, 2)
	for _, m := range matches {
		if m.Confidence >= hardFilterThreshold {
			strong = append(strong, m)
		}
	}
	if len(strong) == 1 {
		return strong[0].Family
	}
	return ""
}

func matchEntity(e *entityAliases, normQuery string, tokenSet map[string]struct{}) float64 {
	for _, phrase := range e.phrases {
		if strings.Contains(normQuery, phrase) {
			return confidenceExactPhrase
		}
	}
	if len(e.tokens) == 0 {
		return 0
	}

	matched := 0
	for _, t := range e.tokens {
		if _, ok := tokenSet[t]; ok {
			matched++
		}
	}
	switch {
	case matched == len(e.tokens):
		return confidenceAllTokens
	case matched > 0 && matched >= (len(e.tokens)+1)/2:
		return confidencePartial
	default:
		return 0
	}
}
