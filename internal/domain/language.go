package domain

import "strings"

// Language is the detected language of a text. Only two are supported.
type Language string

const (
	LanguageRussian Language = "ru"
	LanguageEnglish Language = "en"
)

// ParseLanguage returns the language for a tag, or false for anything unsupported.
func ParseLanguage(s string) (Language, bool) {
	switch Language(s) {
	case LanguageRussian, LanguageEnglish:
		return Language(s), true
	default:
		return "", false
	}
}

// DetectLanguage classifies text as Russian if it contains any Cyrillic letter
// from а-я or ё (either case), otherwise English.
func DetectLanguage(text string) Language {
	for _, r := range strings.ToLower(text) {
		if (r >= 'а' && r <= 'я') || r == 'ё' {
			return LanguageRussian
		}
	}
	return LanguageEnglish
}

// NormalizeText derives the vote key for a raw message.
func NormalizeText(text string) string {
	return strings.ToLower(text)
}
