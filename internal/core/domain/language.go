package domain

import (
	"fmt"
	"strings"
)

const SourceLanguage = "en"

type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Native string `json:"native"`
	// SpeechCode is the locale sent to speech synthesis.
	SpeechCode string `json:"speech_code"`
}

var languages = []Language{
	{Code: "en", Name: "English", Native: "English", SpeechCode: "en"},
	{Code: "es", Name: "Spanish", Native: "Español", SpeechCode: "es"},
	{Code: "fr", Name: "French", Native: "Français", SpeechCode: "fr"},
	{Code: "de", Name: "German", Native: "Deutsch", SpeechCode: "de"},
	{Code: "pt", Name: "Portuguese", Native: "Português", SpeechCode: "pt"},
	{Code: "hi", Name: "Hindi", Native: "हिन्दी", SpeechCode: "hi"},
	{Code: "zh", Name: "Chinese", Native: "中文", SpeechCode: "zh-CN"},
	{Code: "ja", Name: "Japanese", Native: "日本語", SpeechCode: "ja"},
	{Code: "ko", Name: "Korean", Native: "한국어", SpeechCode: "ko"},
	{Code: "ar", Name: "Arabic", Native: "العربية", SpeechCode: "ar"},
	{Code: "ru", Name: "Russian", Native: "Русский", SpeechCode: "ru"},
	{Code: "it", Name: "Italian", Native: "Italiano", SpeechCode: "it"},
	{Code: "tr", Name: "Turkish", Native: "Türkçe", SpeechCode: "tr"},
	{Code: "pl", Name: "Polish", Native: "Polski", SpeechCode: "pl"},
	{Code: "nl", Name: "Dutch", Native: "Nederlands", SpeechCode: "nl"},
}

func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

func LookupLanguage(code string) (Language, bool) {
	code = NormalizeLanguage(code)
	for _, l := range languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

func NormalizeLanguage(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ValidateLanguage normalizes code and rejects unsupported languages.
func ValidateLanguage(code string) (string, error) {
	normalized := NormalizeLanguage(code)
	if normalized == "" {
		return SourceLanguage, nil
	}
	if _, ok := LookupLanguage(normalized); !ok {
		return "", WrapError(ErrInvalidInput, "validate language",
			fmt.Errorf("unsupported language %q", code))
	}
	return normalized, nil
}

// SpeechLocale maps a language code to its speech locale, defaulting to English.
func SpeechLocale(code string) string {
	if l, ok := LookupLanguage(code); ok {
		return l.SpeechCode
	}
	return SourceLanguage
}
