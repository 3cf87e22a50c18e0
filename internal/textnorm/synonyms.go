package textnorm

// rawBilingualSynonyms maps a French or Arabic term to its equivalents in
// both languages. Used for cross-language routing and BM25 query expansion.
// Arabic entries are written in their natural spelling; foldSynonymTable
// folds them (hamza alef, taa marbouta) so they match normalized tokens.
var rawBilingualSynonyms = map[string][]string{
	// Technology
	"fibre":        {"fibre optique", "fibre", "الألياف البصرية", "الألياف", "فيبر"},
	"الألياف":      {"الألياف البصرية", "fibre", "fibre optique", "فيبر"},
	"fibre optique": {"fibre", "الألياف البصرية", "الألياف", "فيبر"},
	"adsl":         {"adsl", "اي دي اس ال", "ايديسال"},
	"vdsl":         {"vdsl", "في دي اس ال", "فيديسال"},
	"4g":           {"4g lte", "4g", "لتي", "الجيل الرابع", "4جي"},
	"lte":          {"4g lte", "lte", "لتي", "4جي"},
	"4g lte":       {"4g", "lte", "لتي", "الجيل الرابع"},

	// Speed and bandwidth
	"débit":   {"débit", "vitesse", "تدفق", "سرعة", "ديبي"},
	"تدفق":    {"تدفق", "سرعة", "débit", "vitesse"},
	"vitesse": {"vitesse", "débit", "سرعة", "تدفق"},
	"mbps":    {"mbps", "mega", "ميغابت", "ميقا"},
	"gbps":    {"gbps", "giga", "جيغابت", "غيغا", "جيقا"},

	// Customer segments
	"résidentiel":   {"résidentiel", "particulier", "خواص", "سكني", "منزلي"},
	"خواص":          {"خواص", "résidentiel", "particulier", "سكني"},
	"particulier":   {"particulier", "résidentiel", "خواص", "سكني"},
	"professionnel": {"professionnel", "entreprise", "محترف", "مهني", "شركة"},
	"محترف":         {"محترف", "مهني", "professionnel", "entreprise"},
	"entreprise":    {"entreprise", "société", "professionnel", "شركة", "مؤسسة"},

	// Schools
	"école":         {"école", "écoles", "primaire", "scolaire", "établissement", "مدرسة", "مدارس", "ابتدائي"},
	"مدرسة":         {"مدرسة", "مدارس", "ابتدائي", "école", "écoles", "primaire", "établissement"},
	"primaire":      {"primaire", "école primaire", "ابتدائي", "établissement scolaire"},
	"établissement": {"établissement", "établissement scolaire", "école", "مؤسسة", "مدرسة"},
	"scolaire":      {"scolaire", "école", "éducatif", "مدرسي", "تعليمي"},

	// Services
	"modernisation": {"modernisation", "migration", "évolution", "عصرنة", "تحديث", "تطوير"},
	"عصرنة":         {"عصرنة", "تحديث", "modernisation", "migration"},
	"migration":     {"migration", "modernisation", "basculement", "تحويل", "عصرنة"},
	"basculement":   {"basculement", "migration", "changement", "تحويل", "نقل"},
	"تحويل":         {"تحويل", "نقل", "basculement", "migration"},
	"installation":  {"installation", "activation", "تركيب", "تنصيب", "تثبيت"},
	"تركيب":         {"تركيب", "تنصيب", "installation", "activation"},

	// Equipment
	"ont":     {"ont", "modem fibre", "modem optique", "اونت", "مودم الألياف"},
	"modem":   {"modem", "routeur", "مودم", "راوتر"},
	"مودم":    {"مودم", "راوتر", "modem", "routeur"},
	"routeur": {"routeur", "modem", "راوتر", "مودم"},
	"wifi":    {"wifi", "wi-fi", "wifi 6", "واي فاي", "وايفاي"},
	"واي فاي": {"واي فاي", "وايفاي", "wifi", "wi-fi"},

	// Billing
	"tarif":      {"tarif", "prix", "abonnement", "سعر", "تسعيرة", "تعريفة"},
	"سعر":        {"سعر", "تسعيرة", "tarif", "prix"},
	"prix":       {"prix", "tarif", "coût", "سعر", "تكلفة"},
	"abonnement": {"abonnement", "forfait", "اشتراك", "عرض"},
	"اشتراك":     {"اشتراك", "عرض", "abonnement", "forfait"},
	"forfait":    {"forfait", "abonnement", "offre", "عرض", "اشتراك"},

	// Contract terms
	"engagement":      {"engagement", "contrat", "durée", "التزام", "عقد"},
	"التزام":          {"التزام", "عقد", "engagement", "contrat"},
	"sans engagement": {"sans engagement", "بدون التزام", "no commitment"},
	"durée":           {"durée", "période", "مدة", "فترة"},
	"mois":            {"mois", "mensuel", "شهر", "شهري"},

	// Credit and data
	"crédit":  {"crédit", "solde", "balance", "رصيد", "ذمة"},
	"رصيد":    {"رصيد", "crédit", "solde", "balance"},
	"solde":   {"solde", "crédit", "balance", "رصيد"},
	"données": {"données", "data", "volume", "بيانات", "حجم"},
	"بيانات":  {"بيانات", "données", "data"},

	// Taxes
	"timbre": {"timbre fiscal", "timbre", "taxe", "طابع", "طابع جبائي"},
	"طابع":   {"طابع", "طابع جبائي", "timbre", "taxe"},
	"fiscal": {"fiscal", "taxe", "جبائي", "ضريبة"},
	"جبائي":  {"جبائي", "ضريبة", "fiscal", "taxe"},

	// Offers
	"offre": {"offre", "promotion", "formule", "عرض", "عروض"},
	"عرض":   {"عرض", "عروض", "offre", "promotion", "formule"},

	// Volume limits
	"illimité":   {"illimité", "illimitée", "sans limite", "unlimited", "غير محدود", "بلا حدود"},
	"غير محدود":  {"غير محدود", "illimité", "sans limite"},
	"volume":     {"volume", "données", "data", "quota", "حجم", "بيانات"},
	"quota":      {"quota", "limite", "plafond", "حد", "سقف"},
	"parrainage": {"parrainage", "sponsoring", "إحالة", "رعاية"},
	"إحالة":      {"إحالة", "parrainage"},
	"gamer":      {"gamer", "gamers", "gaming", "jeux", "جيمر", "ألعاب"},
	"gaming":     {"gaming", "gamer", "jeux", "ألعاب", "جيمر"},

	// Payment
	"paiement":    {"paiement", "payment", "payement", "دفع", "تسديد"},
	"دفع":         {"دفع", "تسديد", "paiement", "payment"},
	"électronique": {"électronique", "numérique", "digital", "إلكتروني", "رقمي"},
	"إلكتروني":    {"إلكتروني", "رقمي", "électronique", "digital"},

	// Operations
	"upgrade":   {"upgrade", "amélioration", "augmentation", "ترقية", "تحسين"},
	"ترقية":     {"ترقية", "تحسين", "upgrade", "amélioration"},
	"downgrade": {"downgrade", "réduction", "خفض", "تخفيض"},

	// Service issues
	"interruption": {"interruption", "coupure", "panne", "انقطاع", "عطل"},
	"انقطاع":       {"انقطاع", "عطل", "interruption", "coupure"},
	"problème":     {"problème", "souci", "مشكلة", "عطل"},
	"مشكلة":        {"مشكلة", "عطل", "problème", "souci"},

	// Location and transfer
	"déménagement": {"déménagement", "transfert", "changement adresse", "نقل", "تحويل عنوان"},
	"نقل":          {"نقل", "déménagement", "transfert"},

	// Customer service
	"assistance":  {"assistance", "support", "aide", "مساعدة", "دعم"},
	"مساعدة":      {"مساعدة", "دعم", "assistance", "support"},
	"réclamation": {"réclamation", "plainte", "شكوى", "شكاية"},
	"شكوى":        {"شكوى", "شكاية", "réclamation", "plainte"},

	// Coverage
	"zone":        {"zone", "couverture", "région", "منطقة", "تغطية"},
	"منطقة":       {"منطقة", "zone", "région"},
	"couverture":  {"couverture", "éligibilité", "zone", "تغطية", "أهلية"},
	"تغطية":       {"تغطية", "أهلية", "couverture", "zone"},
	"éligibilité": {"éligibilité", "eligibilité", "أهلية", "صلاحية"},
	"أهلية":       {"أهلية", "éligibilité", "couverture"},
}

var bilingualSynonyms = foldSynonymTable(rawBilingualSynonyms)

// foldSynonymTable runs every key and value through NormalizeArabic so the
// table is keyed by the same folded forms Tokenize produces. Keys that fold
// to the same form have their synonym lists merged.
func foldSynonymTable(raw map[string][]string) map[string][]string {
	folded := make(map[string][]string, len(raw))
	for key, syns := range raw {
		k := NormalizeArabic(key)
		seen := make(map[string]struct{}, len(syns))
		for _, s := range folded[k] {
			seen[s] = struct{}{}
		}
		for _, s := range syns {
			fs := NormalizeArabic(s)
			if _, ok := seen[fs]; ok {
				continue
			}
			seen[fs] = struct{}{}
			folded[k] = append(folded[k], fs)
		}
	}
	return folded
}

// Synonyms returns up to max synonyms for a normalized term, the term itself
// first. Unknown terms return only the term.
func Synonyms(term string, max int) []string {
	if max <= 0 {
		return nil
	}
	syns, ok := bilingualSynonyms[term]
	if !ok {
		return []string{term}
	}
	out := make([]string, 0, max)
	out = append(out, term)
	for _, s := range syns {
		if len(out) >= max {
			break
		}
		if s != term {
			out = append(out, s)
		}
	}
	return out
}

// ExpandTokens adds up to maxPerToken synonyms for each query token while
// preserving token order. Duplicates are skipped.
func ExpandTokens(tokens []string, maxPerToken int) []string {
	expanded := make([]string, 0, len(tokens)*2)
	seen := make(map[string]struct{}, len(tokens)*2)

	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		expanded = append(expanded, t)
	}

	for _, token := range tokens {
		add(token)
		for _, syn := range Synonyms(token, maxPerToken+1)[1:] {
			add(syn)
		}
	}
	return expanded
}

// CrossLanguageMatches counts query tokens whose synonym set intersects the
// document token set. Each query token is counted at most once.
func CrossLanguageMatches(queryTokens []string, docTokens map[string]struct{}) int {
	matches := 0
	for _, q := range queryTokens {
		for _, syn := range Synonyms(q, 10) {
			if _, ok := docTokens[syn]; ok {
				matches++
				break
			}
		}
	}
	return matches
}
