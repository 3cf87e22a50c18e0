package textnorm

import (
	"reflect"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{"french", "quel est le prix de la fibre", LangFrench},
		{"arabic", "ما هو سعر الألياف البصرية", LangArabic},
		{"mixed", "prix fibre سعر الألياف", LangMixed},
		{"empty defaults to french", "", LangFrench},
		{"numbers only defaults to french", "1200 100", LangFrench},
		{"arabic with latin acronym", "عرض 4G LTE الجديد للخواص في الجزائر", LangArabic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLanguage(tt.text); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeArabic(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"alef variants folded", "أسعار إنترنت آدسل", "اسعار انترنت ادسل"},
		{"yaa folded", "واي فاي منزلى", "واي فاي منزلي"},
		{"taa marbouta folded", "مدرسة", "مدرسه"},
		{"tatweel removed", "عـــرض", "عرض"},
		{"latin acronym preserved", "عرض 4G LTE", "عرض 4G LTE"},
		{"whitespace collapsed", "عرض   جديد", "عرض جديد"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeArabic(tt.in); got != tt.want {
				t.Errorf("NormalizeArabic(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeFrench(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "FIBRE Optique", "fibre optique"},
		{"accents preserved", "débit élevé", "débit élevé"},
		{"punctuation stripped", "prix? 1200 DA!", "prix 1200 da"},
		{"hyphen and apostrophe kept", "wi-fi l'offre", "wi-fi l'offre"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFrench(tt.in); got != tt.want {
				t.Errorf("NormalizeFrench(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"basic", "offre fibre 1200 da", []string{"offre", "fibre", "1200", "da"}},
		{"single letters dropped", "a b offre", []string{"offre"}},
		{"single digits kept", "fibre 4 mois", []string{"fibre", "4", "mois"}},
		{"arabic tokens", "عرض الألياف", []string{"عرض", "الألياف"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQueryTerms(t *testing.T) {
	normalized, tokens, lang := QueryTerms("Quel est le PRIX de la Fibre?")
	if lang != LangFrench {
		t.Errorf("expected french, got %q", lang)
	}
	if normalized != "quel est le prix de la fibre" {
		t.Errorf("unexpected normalized text: %q", normalized)
	}
	want := []string{"quel", "est", "le", "prix", "de", "la", "fibre"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %v, want %v", tokens, want)
	}
}

func TestExpandTokens(t *testing.T) {
	expanded := ExpandTokens([]string{"fibre"}, 2)
	if len(expanded) < 2 {
		t.Fatalf("expected expansion for 'fibre', got %v", expanded)
	}
	if expanded[0] != "fibre" {
		t.Errorf("original token must come first, got %v", expanded)
	}

	// Unknown tokens pass through unchanged.
	passthrough := ExpandTokens([]string{"zzzunknown"}, 3)
	if !reflect.DeepEqual(passthrough, []string{"zzzunknown"}) {
		t.Errorf("expected passthrough, got %v", passthrough)
	}
}

func TestExpandTokens_NoDuplicates(t *testing.T) {
	expanded := ExpandTokens([]string{"prix", "tarif"}, 3)
	seen := make(map[string]int)
	for _, tok := range expanded {
		seen[tok]++
		if seen[tok] > 1 {
			t.Errorf("duplicate token %q in expansion %v", tok, expanded)
		}
	}
}

func TestCrossLanguageMatches(t *testing.T) {
	docTokens := map[string]struct{}{
		"fibre": {},
		"prix":  {},
	}
	// Arabic query term whose synonyms include "fibre". Query tokens arrive
	// folded, so the folded form must hit the table.
	got := CrossLanguageMatches([]string{NormalizeArabic("الألياف")}, docTokens)
	if got != 1 {
		t.Errorf("expected 1 cross-language match, got %d", got)
	}
	if CrossLanguageMatches([]string{"inconnu"}, docTokens) != 0 {
		t.Error("expected no match for unknown term")
	}
}

func TestSynonyms_FoldedArabicForms(t *testing.T) {
	// Hamza alef and taa marbouta entries must be reachable from the folded
	// forms Tokenize produces, not only from their natural spelling.
	tests := []struct {
		term string
		want string
	}{
		{"الألياف", "fibre"},
		{"إحالة", "parrainage"},
		{"إلكتروني", "électronique"},
		{"أهلية", "éligibilité"},
		{"تغطية", "couverture"},
		{"مدرسة", "école"},
	}
	for _, tt := range tests {
		folded := NormalizeArabic(tt.term)
		syns := Synonyms(folded, 10)
		found := false
		for _, s := range syns {
			if s == tt.want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Synonyms(%q) = %v, want it to contain %q", folded, syns, tt.want)
		}
	}
}

func TestSynonyms_TableFullyFolded(t *testing.T) {
	for key, syns := range bilingualSynonyms {
		if key != NormalizeArabic(key) {
			t.Errorf("key %q is not folded", key)
		}
		for _, s := range syns {
			if s != NormalizeArabic(s) {
				t.Errorf("synonym %q of %q is not folded", s, key)
			}
		}
	}
}
