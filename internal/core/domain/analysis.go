package domain

import (
	"encoding/json"
	"time"
)

// AnalysisResult is the structured findings for one language.
type AnalysisResult struct {
	DocumentSummary DocumentSummary `json:"document_summary"`
	KeyClauses      []KeyClause     `json:"key_clauses,omitempty"`
	RiskAnalysis    RiskAnalysis    `json:"risk_analysis"`
	YourObligations []Obligation    `json:"your_obligations,omitempty"`
	YourRights      []Right         `json:"your_rights,omitempty"`
	QuestionsToAsk  []string        `json:"questions_to_ask,omitempty"`
}

type DocumentSummary struct {
	DocumentType string   `json:"document_type"`
	Parties      []string `json:"parties,omitempty"`
	Purpose      string   `json:"purpose"`
}

type KeyClause struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Impact      string `json:"impact"`
}

type RiskAnalysis struct {
	RedFlags      []Flag         `json:"red_flags,omitempty"`
	YellowFlags   []Flag         `json:"yellow_flags,omitempty"`
	PositiveTerms []PositiveTerm `json:"positive_terms,omitempty"`
}

// Flag is a red or yellow finding. Red flags carry PotentialConsequence,
// yellow flags carry WhatToReview.
type Flag struct {
	Issue                string `json:"issue"`
	WhyItMatters         string `json:"why_it_matters"`
	PotentialConsequence string `json:"potential_consequence,omitempty"`
	WhatToReview         string `json:"what_to_review,omitempty"`
}

type PositiveTerm struct {
	Benefit    string `json:"benefit"`
	WhyItHelps string `json:"why_it_helps,omitempty"`
}

type Obligation struct {
	Obligation            string `json:"obligation"`
	Details               string `json:"details,omitempty"`
	DeadlineOrRequirement string `json:"deadline_or_requirement,omitempty"`
}

type Right struct {
	Right   string `json:"right"`
	Details string `json:"details,omitempty"`
}

// DocumentType returns the labelled type or a generic fallback.
func (a AnalysisResult) DocumentType() string {
	if a.DocumentSummary.DocumentType == "" {
		return "agreement"
	}
	return a.DocumentSummary.DocumentType
}

// TopQuestions returns at most n questions in ranked order.
func (a AnalysisResult) TopQuestions(n int) []string {
	if n <= 0 || len(a.QuestionsToAsk) == 0 {
		return nil
	}
	if len(a.QuestionsToAsk) < n {
		n = len(a.QuestionsToAsk)
	}
	out := make([]string, n)
	copy(out, a.QuestionsToAsk[:n])
	return out
}

// PageReport is the per-page extraction summary returned by the analysis service.
type PageReport struct {
	PageNumber int    `json:"page_number,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Method     string `json:"method,omitempty"`
	FileType   string `json:"file_type,omitempty"`
	CharCount  int    `json:"char_count,omitempty"`
}

// AnalysisResponse is the normalized outcome of one analyze call.
type AnalysisResponse struct {
	ExtractedText string
	TotalPages    int
	Pages         []PageReport
	Metadata      map[string]json.RawMessage
	// Analysis is the authoritative English tree.
	Analysis AnalysisResult
}

// Submission is a completed analysis session. It is immutable after creation.
type Submission struct {
	ID               string                     `json:"id"`
	DocumentLanguage string                     `json:"document_language"`
	Pages            []PageInfo                 `json:"pages"`
	ExtractedText    string                     `json:"extracted_text"`
	TotalPages       int                        `json:"total_pages"`
	PageReports      []PageReport               `json:"page_reports,omitempty"`
	Metadata         map[string]json.RawMessage `json:"metadata,omitempty"`
	Analysis         map[string]AnalysisResult  `json:"analysis"`
	StartedAt        time.Time                  `json:"started_at"`
	CompletedAt      time.Time                  `json:"completed_at"`
}

// Source returns the English analysis, which is always present.
func (s *Submission) Source() AnalysisResult {
	return s.Analysis[SourceLanguage]
}

// LocalizedAnalysis is an analysis rendered for one language with its derived risk.
type LocalizedAnalysis struct {
	Language         string         `json:"language"`
	Translated       bool           `json:"translated"`
	Analysis         AnalysisResult `json:"analysis"`
	Risk             RiskAssessment `json:"risk"`
	TranslationError string         `json:"translation_error,omitempty"`
}
