package model

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a selectable native or study language.
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`   // English name, e.g. "German"
	Native string `json:"native"` // self name, e.g. "Deutsch"
}

// supportedCodes is the onboarding language list.
var supportedCodes = []string{
	"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko",
	"ar", "hi", "nl", "pl", "tr", "sv", "no", "da", "fi", "cs",
	"uk", "ro", "el", "hu", "th", "vi", "id", "ms", "he",
}

// baseAliases folds written standards of a supported language into its
// menu code.
var baseAliases = map[string]string{
	"nb": "no", // Bokmål
	"nn": "no", // Nynorsk
}

// SupportedLanguages returns the languages a profile or deck may use, in
// menu order.
func SupportedLanguages() []Language {
	out := make([]Language, 0, len(supportedCodes))
	for _, code := range supportedCodes {
		out = append(out, describe(language.Make(code), code))
	}
	return out
}

// LookupLanguage parses a BCP 47 code and returns it if its base language is
// supported. Region and script subtags are ignored, so "pt-BR" resolves to
// "pt", and "nb" and "nn" resolve to "no".
func LookupLanguage(code string) (Language, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return Language{}, false
	}
	base, _ := tag.Base()
	code = base.String()
	if alias, ok := baseAliases[code]; ok {
		code = alias
	}
	for _, c := range supportedCodes {
		if c == code {
			return describe(language.Make(c), c), true
		}
	}
	return Language{}, false
}

func describe(tag language.Tag, code string) Language {
	return Language{
		Code:   code,
		Name:   display.English.Languages().Name(tag),
		Native: display.Self.Name(tag),
	}
}
