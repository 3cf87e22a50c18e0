// Package textnorm provides French/Arabic text normalization shared by every
// retrieval layer. The router, the sparse index, and the dense index must all
// see the same token stream, so normalization lives in one place.
package textnorm

import (
	"regexp"
	"strings"
)

// Language is the detected script of a query or document field.
type Language string

// Detected languages. Mixed text gets both normalization passes.
const (
	LangFrench Language = "fr"
	LangArabic Language = "ar"
	LangMixed  Language = "mixed"
)

var (
	arabicCharRe = regexp.MustCompile(`[\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}\x{FB50}-\x{FDFF}\x{FE70}-\x{FEFF}]`)
	latinCharRe  = regexp.MustCompile(`[a-zA-ZÀ-ÿ]`)

	diacriticsRe  = regexp.MustCompile(`[\x{064B}-\x{065F}\x{0670}]`)
	alefVariants  = regexp.MustCompile(`[أإآٱ]`)
	frenchPunctRe = regexp.MustCompile(`[^\pL\pN_\s\-'àâäéèêëïîôùûüÿæœç]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	tokenRe       = regexp.MustCompile(`[\pL\pN_]+`)
)

// DetectLanguage classifies text by the ratio of Arabic to Latin characters.
// Above 0.7 Arabic, below 0.3 French, otherwise mixed. Empty text defaults to French.
func DetectLanguage(text string) Language {
	if text == "" {
		return LangFrench
	}

	arabic := len(arabicCharRe.FindAllString(text, -1))
	latin := len(latinCharRe.FindAllString(text, -1))

	total := arabic + latin
	if total == 0 {
		return LangFrench
	}

	ratio := float64(arabic) / float64(total)
	switch {
	case ratio > 0.7:
		return LangArabic
	case ratio < 0.3:
		return LangFrench
	default:
		return LangMixed
	}
}

// NormalizeArabic strips diacritics and tatweel and folds letter variants
// (alef, yaa, taa marbouta). Latin acronyms like "4G LTE" survive untouched.
func NormalizeArabic(text string) string {
	if text == "" {
		return ""
	}
	text = diacriticsRe.ReplaceAllString(text, "")
	text = alefVariants.ReplaceAllString(text, "ا")
	text = strings.ReplaceAll(text, "ى", "ي")
	text = strings.ReplaceAll(text, "ة", "ه")
	text = strings.ReplaceAll(text, "ـ", "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// FoldTerms folds matcher literals the way NormalizeArabic folds query and
// document text, so Arabic terms written in their natural spelling still
// match normalized tokens.
func FoldTerms(terms ...string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = NormalizeArabic(t)
	}
	return out
}

// NormalizeFrench lowercases and strips punctuation, preserving accents,
// hyphens, and apostrophes which carry meaning in French.
func NormalizeFrench(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = frenchPunctRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Normalize applies language-appropriate normalization. Mixed text gets the
// Arabic pass first so Latin acronyms inside Arabic queries are preserved.
func Normalize(text string) string {
	return NormalizeWithLanguage(text, DetectLanguage(text))
}

// NormalizeWithLanguage normalizes with a pre-detected language.
func NormalizeWithLanguage(text string, lang Language) string {
	if text == "" {
		return ""
	}
	switch lang {
	case LangArabic:
		return NormalizeArabic(text)
	case LangFrench:
		return NormalizeFrench(text)
	default:
		return NormalizeFrench(NormalizeArabic(text))
	}
}

// Tokenize splits normalized text into tokens, dropping single characters
// that are not digits.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	raw := tokenRe.FindAllString(text, -1)
	tokens := raw[:0]
	for _, t := range raw {
		if len([]rune(t)) > 1 || isDigits(t) {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// QueryTerms normalizes and tokenizes a raw query in one step, returning the
// normalized text, its tokens, and the detected language.
func QueryTerms(query string) (string, []string, Language) {
	lang := DetectLanguage(query)
	normalized := NormalizeWithLanguage(query, lang)
	return normalized, Tokenize(normalized), lang
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
