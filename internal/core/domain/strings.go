package domain

import (
	"sort"
	"strings"
)

// StringTable maps UI string keys to display text in one language.
type StringTable map[string]string

var baseStrings = StringTable{
	"appName":    "AgreeWise",
	"uiLanguage": "Language",

	"documentLanguageLabel":    "Document Language",
	"documentLanguageHint":     "Language of your contract text",
	"explanationLanguageLabel": "Explanation Language",
	"explanationLanguageHint":  "Language you want the analysis in",
	"uploadHint":               "PDF, DOCX, JPG, PNG up to 10MB",
	"analyzeButton":            "Analyze Agreement",
	"selectFileButton":         "Select a file to continue",
	"removeFile":               "Remove file",
	"footerDisclaimer":         "Not legal advice • For informational purposes only",

	"stageExtracting": "Extracting text",
	"stageAnalyzing":  "Analyzing with AI",
	"stageComplete":   "Complete",

	"analysisComplete":     "Analysis Complete",
	"successAnalyzed":      "Successfully analyzed your document",
	"successAnalyzedPages": "Successfully analyzed {pages} pages",
	"translatingTo":        "Translating to {language}...",
	"translationFailed":    "Translation failed",
	"stopAudio":            "Stop Audio",
	"listenToSummary":      "Listen to Summary",
	"generating":           "Generating...",
	"summary":              "Summary",
	"whatYouMustDo":        "What You Must Do",
	"whatYouGet":           "What You Get",
	"importantWarnings":    "Important Warnings",
	"importantTerms":       "Important Terms",
	"questionsToAsk":       "Questions to Ask Before Signing",
	"copyMessage":          "Copy Message",
	"showingTopQuestions":  "Showing top 3 of {count} questions",
	"explainedIn":          "Explained in",
	"translated":           "Translated",
	"analyzeAnother":       "Analyze Another Document",

	"lowRisk":        "LOW RISK",
	"mediumRisk":     "MEDIUM RISK",
	"highRisk":       "HIGH RISK",
	"cautionMessage": "CAUTION: Multiple serious concerns found. Review carefully before signing.",
	"someConcerns":   "Some concerns found. Read the warnings below carefully.",
	"fairBalance":    "This contract looks fair and balanced.",

	"redFlags":            "Red Flag",
	"redFlagsPlural":      "Red Flags",
	"yellowFlags":         "Yellow Flag",
	"yellowFlagsPlural":   "Yellow Flags",
	"positiveTerms":       "Positive Term",
	"positiveTermsPlural": "Positive Terms",
}

// BaseStrings returns a copy of the English UI string table.
func BaseStrings() StringTable {
	return baseStrings.Clone()
}

func (t StringTable) Clone() StringTable {
	out := make(StringTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Keys returns the table keys in sorted order.
func (t StringTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup resolves key against t, then the English table, then the key itself.
func (t StringTable) Lookup(key string) string {
	if v, ok := t[key]; ok && v != "" {
		return v
	}
	if v, ok := baseStrings[key]; ok {
		return v
	}
	return key
}

// Format resolves key and substitutes {name} placeholders.
func (t StringTable) Format(key string, args map[string]string) string {
	out := t.Lookup(key)
	for name, value := range args {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
