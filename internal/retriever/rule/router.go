// Package rule implements the first retrieval layer: deterministic metadata
// routing. Each document gets a token set built from its routing tags, titles,
// and bilingual synonyms; queries are scored against it with weighted matches
// and compound domain patterns. No model calls, microsecond latency.
package rule

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/document"
	"github.com/sohaib162/forsa-smart-chatbot/internal/domain/retrieval"
	"github.com/sohaib162/forsa-smart-chatbot/internal/textnorm"
)

// Config holds the router thresholds. Zero values get defaults from New.
type Config struct {
	// HighScoreThreshold is the absolute score above which the router alone
	// is trusted to answer.
	HighScoreThreshold float64
	// DominanceRatio is the top/second score ratio that signals a confident match.
	DominanceRatio float64
	// CandidatePool caps how many scored candidates are handed to the next layer.
	CandidatePool int
}

type routingEntry struct {
	docID         string
	position      int
	tokens        map[string]struct{}
	docType       string
	productFamily string
	segment       string
	technology    string
	commitment    string
}

// Router scores queries against per-document routing token sets.
type Router struct {
	entries []routingEntry
	cfg     Config
	logger  *zap.Logger
}

// New builds the routing index. Safe for concurrent Route calls afterwards.
func New(docs []document.Document, cfg Config, logger *zap.Logger) *Router {
	if cfg.HighScoreThreshold <= 0 {
		cfg.HighScoreThreshold = 15
	}
	if cfg.DominanceRatio <= 0 {
		cfg.DominanceRatio = 2
	}
	if cfg.CandidatePool <= 0 {
		cfg.CandidatePool = 15
	}

	entries := make([]routingEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, buildEntry(&doc))
	}

	logger.Info("Routing index built", zap.Int("documents", len(entries)))
	return &Router{entries: entries, cfg: cfg, logger: logger}
}

// buildEntry collects the routing tokens of one document: tag values, their
// underscore components, title words, and a bounded synonym expansion.
func buildEntry(doc *document.Document) routingEntry {
	tokens := make(map[string]struct{})
	raw := make([]string, 0, 16)

	addTag := func(tag string) {
		if tag == "" {
			return
		}
		tokens[tag] = struct{}{}
		raw = append(raw, tag)
		for _, part := range strings.Split(tag, "_") {
			if part != "" {
				tokens[part] = struct{}{}
			}
		}
	}

	addTag(doc.DocType)
	addTag(doc.ProductFamily)
	addTag(doc.Technology)
	addTag(doc.CustomerSegment)
	addTag(doc.Commitment)
	if doc.Commitment == "no_commitment" || strings.Contains(doc.Commitment, "sans engagement") {
		for _, t := range []string{"sans", "engagement", "sans engagement", "بدون", "التزام"} {
			tokens[t] = struct{}{}
		}
	}
	for _, kw := range doc.Keywords {
		addTag(kw)
		for _, t := range textnorm.Tokenize(kw) {
			tokens[t] = struct{}{}
		}
	}

	// Title words: longer cutoff for French, shorter for denser Arabic words.
	for _, w := range textnorm.Tokenize(textnorm.Normalize(doc.TitleFR)) {
		if len([]rune(w)) > 3 {
			tokens[w] = struct{}{}
			raw = append(raw, w)
		}
	}
	for _, w := range textnorm.Tokenize(textnorm.NormalizeArabic(doc.TitleAR)) {
		if len([]rune(w)) > 2 {
			tokens[w] = struct{}{}
			raw = append(raw, w)
		}
	}

	// Bounded bilingual expansion of the raw tag tokens.
	if len(raw) > 50 {
		raw = raw[:50]
	}
	for _, t := range raw {
		for _, syn := range textnorm.Synonyms(t, 3) {
			tokens[syn] = struct{}{}
		}
	}

	return routingEntry{
		docID:         doc.ID,
		position:      doc.Position,
		tokens:        tokens,
		docType:       doc.DocType,
		productFamily: doc.ProductFamily,
		segment:       doc.CustomerSegment,
		technology:    doc.Technology,
		commitment:    doc.Commitment,
	}
}

// Route scores all documents against the normalized query. Returns the scored
// candidate pool (score descending, corpus order on ties) and the router's
// confidence in its own ranking.
func (r *Router) Route(normQuery string, queryTokens []string) ([]retrieval.Scored, retrieval.Confidence) {
	tokenSet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		tokenSet[t] = struct{}{}
	}
	sig := detectSignals(normQuery, tokenSet)

	scored := make([]retrieval.Scored, 0, len(r.entries))
	positions := make(map[string]int, len(r.entries))
	for _, e := range r.entries {
		s := scoreEntry(&e, tokenSet, queryTokens, sig)
		if s > 0 {
			scored = append(scored, retrieval.Scored{ID: e.docID, Score: s})
			positions[e.docID] = e.position
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return positions[scored[i].ID] < positions[scored[j].ID]
	})

	confidence := r.assess(scored)
	if len(scored) > r.cfg.CandidatePool {
		scored = scored[:r.cfg.CandidatePool]
	}
	return scored, confidence
}

// assess grades the ranking: a single nonzero candidate, a dominant top score,
// or an absolute high score all mean the router alone is sufficient.
func (r *Router) assess(scored []retrieval.Scored) retrieval.Confidence {
	switch {
	case len(scored) == 0:
		return retrieval.ConfidenceLow
	case len(scored) == 1:
		return retrieval.ConfidenceHigh
	case scored[0].Score >= scored[1].Score*r.cfg.DominanceRatio:
		return retrieval.ConfidenceHigh
	case scored[0].Score > r.cfg.HighScoreThreshold:
		return retrieval.ConfidenceHigh
	case scored[0].Score > r.cfg.HighScoreThreshold/2:
		return retrieval.ConfidenceMedium
	default:
		return retrieval.ConfidenceLow
	}
}

// signals are the compound query intents detected before per-document scoring.
type signals struct {
	payment, paymentWeak   bool
	ont, ontWeak           bool
	school, schoolWeak     bool
	lte, lteNoCommit       bool
	parrainage             bool
	business               bool
	locataire              bool
	residentiel            bool
	gamers                 bool
	tax                    bool
	modernisation          bool
	legacyToFibre          bool
	serviceIssue           bool
}

// anyToken and anySubstring fold their literals before matching: queries and
// documents arrive with hamza alef and taa marbouta already folded, while the
// signal lists below keep the natural Arabic spelling.
func anyToken(set map[string]struct{}, terms ...string) int {
	n := 0
	for _, t := range textnorm.FoldTerms(terms...) {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}

func anySubstring(s string, terms ...string) bool {
	for _, t := range textnorm.FoldTerms(terms...) {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func detectSignals(query string, tokens map[string]struct{}) signals {
	var sig signals

	payMatches := anyToken(tokens, "paiement", "payment", "payement", "carte", "eddahabia", "edahabia", "cib", "bancaire", "électronique", "دفع", "تسديد", "إلكتروني", "بطاقة", "الذهبية")
	sig.payment = payMatches >= 2
	sig.paymentWeak = payMatches == 1

	ontMatches := anyToken(tokens, "ont", "modem", "routeur", "wifi", "wi-fi", "gpon", "préférentiel", "preferentiel", "اونت", "مودم", "راوتر", "تفضيلي")
	wifi6 := anySubstring(query, "wifi 6", "واي فاي 6", "xgs-pon", "xgs")
	sig.ont = (anyToken(tokens, "ont", "اونت") > 0 && (wifi6 || anyToken(tokens, "préférentiel", "preferentiel", "تفضيلي") > 0)) ||
		(wifi6 && ontMatches >= 1)
	sig.ontWeak = !sig.ont && (ontMatches >= 2 || wifi6)

	school := anySubstring(query, "école", "ecole", "مدرسة", "مدارس")
	primary := anySubstring(query, "primaire", "ابتدائي")
	sig.school = school && primary
	sig.schoolWeak = !sig.school && school

	lte := anySubstring(query, "4g", "lte", "لتي", "4جي", "الجيل الرابع")
	noCommit := anySubstring(query, "sans engagement", "بدون التزام")
	sig.lteNoCommit = lte && noCommit
	sig.lte = lte

	sig.parrainage = anySubstring(query, "parrainage", "إحالة")
	sig.business = anyToken(tokens, "professionnel", "entreprise", "business", "société", "محترف", "مهني", "شركة") > 0
	sig.locataire = anyToken(tokens, "locataire", "مستأجر") > 0
	sig.residentiel = anyToken(tokens, "résidentiel", "particulier", "خواص", "سكني") > 0
	sig.gamers = anyToken(tokens, "gamer", "gamers", "gaming", "jeux", "جيمر", "ألعاب") > 0

	sig.tax = anySubstring(query, "timbre", "fiscal", "taxe", "طابع", "جبائي", "ضريبة", "المالية")
	sig.modernisation = anySubstring(query, "modernisation", "migration", "basculement", "عصرنة", "تحديث", "تحويل")
	sig.legacyToFibre = anySubstring(query, "4g", "lte", "adsl", "vdsl") &&
		anySubstring(query, "vers", "fibre", "modernisation", "migration", "الألياف")
	sig.serviceIssue = anySubstring(query, "interruption", "coupure", "ralenti", "lent", "انقطاع", "بطء")

	return sig
}

//nolint:gocyclo // the scoring table is one long list of weighted rules
func scoreEntry(e *routingEntry, tokenSet map[string]struct{}, queryTokens []string, sig signals) float64 {
	score := 0.0

	// Direct token overlap.
	for t := range tokenSet {
		if _, ok := e.tokens[t]; ok {
			score += 1.5
		}
	}

	// Cross-language overlap through the synonym table.
	score += float64(textnorm.CrossLanguageMatches(queryTokens, e.tokens))

	// Compound intents: strong match boosts the matching family and penalizes
	// everything else, so one intent cannot leak across product families.
	if sig.payment {
		if strings.Contains(e.productFamily, "payment") || e.docType == "payment_benefits" {
			score += 25
		} else {
			score -= 10
		}
	} else if sig.paymentWeak && strings.Contains(e.productFamily, "payment") {
		score += 8
	}

	if sig.ont {
		if anySubstring(e.productFamily, "ont", "wifi_6", "xgs") {
			score += 20
		} else {
			score -= 12
		}
	} else if sig.ontWeak && strings.Contains(e.productFamily, "ont") {
		score += 10
	}

	if sig.school {
		if anySubstring(e.segment, "school", "primary") {
			score += 30
		} else {
			score -= 20
		}
	} else if sig.schoolWeak && strings.Contains(e.segment, "school") {
		score += 15
	}

	if sig.lteNoCommit {
		switch {
		case strings.Contains(e.productFamily, "4g_lte") && e.commitment == "no_commitment":
			score += 15
		case strings.Contains(e.productFamily, "4g_lte"):
			score += 15 * 0.7
		default:
			score -= 15
		}
	} else if sig.lte && strings.Contains(e.productFamily, "4g_lte") {
		score += 10
	}

	if sig.parrainage {
		if anySubstring(e.productFamily, "referral", "parrainage") {
			score += 20
		} else {
			score -= 20
		}
	}

	// Segment exclusivity.
	if sig.business {
		if anySubstring(e.segment, "business", "enterprise") {
			score += 12
		} else {
			score -= 10
		}
	}
	if sig.locataire {
		if strings.Contains(e.segment, "locataire") {
			score += 12
		} else {
			score -= 12
		}
	}
	if sig.gamers {
		if strings.Contains(e.productFamily, "gamer") {
			score += 15
		} else {
			score -= 15
		}
	}
	if sig.residentiel && strings.Contains(e.segment, "residential") {
		score += 8
		if strings.Contains(e.segment, "business") {
			score -= 10
		}
	}

	// Metadata field matches.
	score += fieldMatch(e.docType, tokenSet, 5, 3)
	score += fieldMatch(e.productFamily, tokenSet, 5, 3)
	score += fieldMatch(e.segment, tokenSet, 3, 2)
	score += fieldMatch(e.technology, tokenSet, 2, 1.5)

	// Domain patterns.
	if sig.tax {
		if e.docType == "tax_policy" {
			score += 15
		}
		if e.productFamily == "tax_stamp" {
			score += 15
		}
	}
	if sig.modernisation && strings.Contains(e.productFamily, "modernisation") {
		score += 10
	}
	if sig.legacyToFibre && strings.Contains(e.productFamily, "modernisation") {
		score += 12
	}
	if sig.serviceIssue && (e.docType == "technical" || e.docType == "service_quality") {
		score += 8
	}

	return score
}

// fieldMatch scores a metadata field: exact presence in the query earns the
// direct weight, a synonym overlap the smaller one.
func fieldMatch(field string, tokenSet map[string]struct{}, direct, viaSynonym float64) float64 {
	if field == "" {
		return 0
	}
	score := 0.0
	if _, ok := tokenSet[field]; ok {
		score += direct
	}
	for _, syn := range textnorm.Synonyms(field, 6) {
		if _, ok := tokenSet[syn]; ok && syn != field {
			score += viaSynonym
			break
		}
	}
	return score
}
