package xlsx

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/agreewise/agreewise/internal/core/domain"
)

func sampleLocalized() domain.LocalizedAnalysis {
	a := domain.AnalysisResult{
		DocumentSummary: domain.DocumentSummary{DocumentType: "Lease", Purpose: "renting", Parties: []string{"Tenant", "Landlord"}},
		KeyClauses:      []domain.KeyClause{{Title: "Term", Explanation: "12 months", Impact: "neutral"}},
		RiskAnalysis: domain.RiskAnalysis{
			RedFlags:      []domain.Flag{{Issue: "No refund", WhyItMatters: "deposit", PotentialConsequence: "lose money"}},
			YellowFlags:   []domain.Flag{{Issue: "Pets", WhyItMatters: "fees", WhatToReview: "pet clause"}},
			PositiveTerms: []domain.PositiveTerm{{Benefit: "Repairs covered"}},
		},
		YourObligations: []domain.Obligation{{Obligation: "Pay rent", Details: "monthly"}},
		YourRights:      []domain.Right{{Right: "Quiet enjoyment"}},
		QuestionsToAsk:  []string{"Can I sublet?", "Who fixes the boiler?"},
	}
	return domain.LocalizedAnalysis{Language: "en", Analysis: a, Risk: domain.AssessRisk(a.RiskAnalysis)}
}

func TestWriterBuildsAllSheets(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(nil).Write(&buf, sampleLocalized()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetObligations, SheetRights, SheetRisks, SheetClauses, SheetQuestions}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("expected sheets %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sheets %v, got %v", want, got)
		}
	}

	if v, _ := f.GetCellValue(SheetSummary, "B2"); v != "Lease" {
		t.Fatalf("expected document type, got %q", v)
	}
	if v, _ := f.GetCellValue(SheetSummary, "B6"); v != "MEDIUM RISK" {
		t.Fatalf("expected risk label, got %q", v)
	}
	rows, err := f.GetRows(SheetRisks)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 || rows[1][0] != "red" || rows[2][3] != "pet clause" {
		t.Fatalf("unexpected risk rows %v", rows)
	}
	if v, _ := f.GetCellValue(SheetQuestions, "B3"); v != "Who fixes the boiler?" {
		t.Fatalf("expected second question, got %q", v)
	}
}

func TestWriterUsesLocalizedHeadings(t *testing.T) {
	table := domain.StringTable{"summary": "Resumen"}
	f, err := NewWriter(table).Build(sampleLocalized())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(SheetSummary, "A1"); v != "Resumen" {
		t.Fatalf("expected localized heading, got %q", v)
	}
	if v, _ := f.GetCellValue(SheetSummary, "A8"); v != "Red Flags" {
		t.Fatalf("expected english fallback heading, got %q", v)
	}
}

func TestWriterWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.xlsx")
	if err := NewWriter(nil).WriteFile(path, sampleLocalized()); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(SheetObligations, "A2"); v != "Pay rent" {
		t.Fatalf("expected obligation row, got %q", v)
	}
}
