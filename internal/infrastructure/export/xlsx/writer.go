package xlsx

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agreewise/agreewise/internal/core/domain"
)

const (
	SheetSummary     = "Summary"
	SheetObligations = "Obligations"
	SheetRights      = "Rights"
	SheetRisks       = "Risks"
	SheetClauses     = "Clauses"
	SheetQuestions   = "Questions"
)

// Writer renders a localized analysis as a workbook. Column headings come
// from the UI string table of the analysis language where one exists.
type Writer struct {
	table domain.StringTable
}

func NewWriter(table domain.StringTable) *Writer {
	if table == nil {
		table = domain.BaseStrings()
	}
	return &Writer{table: table}
}

func (w *Writer) WriteFile(path string, la domain.LocalizedAnalysis) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := w.Write(f, la); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) Write(out io.Writer, la domain.LocalizedAnalysis) error {
	f, err := w.Build(la)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory.
func (w *Writer) Build(la domain.LocalizedAnalysis) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	a := la.Analysis
	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, w.summaryRows(la)},
		{SheetObligations, obligationRows(a.YourObligations)},
		{SheetRights, rightRows(a.YourRights)},
		{SheetRisks, riskRows(a.RiskAnalysis)},
		{SheetClauses, clauseRows(a.KeyClauses)},
		{SheetQuestions, questionRows(a.QuestionsToAsk)},
	}
	for _, s := range sheets {
		if s.name != SheetSummary {
			if _, err := f.NewSheet(s.name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("create sheet %s: %w", s.name, err)
			}
		}
		if err := writeRows(f, s.name, s.rows); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetRowStyle(s.name, 1, 1, header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("style sheet %s: %w", s.name, err)
		}
		if err := f.SetColWidth(s.name, "A", "D", 40); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("size sheet %s: %w", s.name, err)
		}
	}
	return f, nil
}

func (w *Writer) summaryRows(la domain.LocalizedAnalysis) [][]any {
	a := la.Analysis
	return [][]any{
		{w.table.Lookup("summary"), ""},
		{"Document type", a.DocumentType()},
		{"Purpose", a.DocumentSummary.Purpose},
		{"Parties", strings.Join(a.DocumentSummary.Parties, "; ")},
		{"Language", la.Language},
		{"Risk", la.Risk.Label},
		{"Assessment", la.Risk.Message},
		{w.table.Lookup("redFlagsPlural"), la.Risk.RedFlags},
		{w.table.Lookup("yellowFlagsPlural"), la.Risk.YellowFlags},
		{w.table.Lookup("positiveTermsPlural"), la.Risk.PositiveTerms},
	}
}

func obligationRows(items []domain.Obligation) [][]any {
	rows := [][]any{{"Obligation", "Details", "Deadline or requirement"}}
	for _, o := range items {
		rows = append(rows, []any{o.Obligation, o.Details, o.DeadlineOrRequirement})
	}
	return rows
}

func rightRows(items []domain.Right) [][]any {
	rows := [][]any{{"Right", "Details"}}
	for _, r := range items {
		rows = append(rows, []any{r.Right, r.Details})
	}
	return rows
}

func riskRows(r domain.RiskAnalysis) [][]any {
	rows := [][]any{{"Severity", "Issue", "Why it matters", "Consequence or review"}}
	for _, f := range r.RedFlags {
		rows = append(rows, []any{"red", f.Issue, f.WhyItMatters, f.PotentialConsequence})
	}
	for _, f := range r.YellowFlags {
		rows = append(rows, []any{"yellow", f.Issue, f.WhyItMatters, f.WhatToReview})
	}
	for _, p := range r.PositiveTerms {
		rows = append(rows, []any{"positive", p.Benefit, p.WhyItHelps, ""})
	}
	return rows
}

func clauseRows(items []domain.KeyClause) [][]any {
	rows := [][]any{{"Clause", "Explanation", "Impact"}}
	for _, c := range items {
		rows = append(rows, []any{c.Title, c.Explanation, c.Impact})
	}
	return rows
}

func questionRows(items []string) [][]any {
	rows := [][]any{{"#", "Question"}}
	for i, q := range items {
		rows = append(rows, []any{strconv.Itoa(i + 1), q})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
