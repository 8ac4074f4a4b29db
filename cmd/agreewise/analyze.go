package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agreewise/agreewise/internal/bootstrap"
	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/core/ports"
	"github.com/agreewise/agreewise/internal/infrastructure/export/xlsx"
)

const topQuestions = 3

var (
	docLang    string
	outLang    string
	narrate    bool
	exportPath string
	jsonOutput bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Analyze an agreement made of one or more pages",
	Long: `Analyze uploads the given files as ordered pages of one agreement and prints
the findings. Files are PDF, DOCX, DOC or images, at most 20 pages of 10 MiB.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&docLang, "doc-lang", domain.SourceLanguage, "language the agreement is written in")
	analyzeCmd.Flags().StringVar(&outLang, "lang", domain.SourceLanguage, "language to explain the agreement in")
	analyzeCmd.Flags().BoolVar(&narrate, "narrate", false, "read a spoken summary aloud")
	analyzeCmd.Flags().StringVar(&exportPath, "export", "", "write the analysis to an .xlsx workbook")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the localized analysis as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	lang, err := domain.ValidateLanguage(outLang)
	if err != nil {
		return err
	}

	for _, path := range args {
		page, err := app.Loader.LoadFile(ctx, path)
		if err != nil {
			return err
		}
		if _, err := app.Workspace.AddPages(page); err != nil {
			return err
		}
	}

	if err := submitWithProgress(ctx, cmd.ErrOrStderr(), app); err != nil {
		return fmt.Errorf("%s", domain.UserMessage(err, "Analysis failed. Please try again."))
	}

	table, localized, err := localizedView(ctx, app.UIStrings, app.Workspace, lang)
	if err != nil {
		return err
	}
	if localized.TranslationError != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "translation to %s failed, showing English: %s\n", lang, localized.TranslationError)
	}

	if exportPath != "" {
		if err := xlsx.NewWriter(table).WriteFile(exportPath, *localized); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported analysis to %s\n", exportPath)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, localized); err != nil {
			return err
		}
	} else {
		sub, _ := app.Workspace.Submission()
		renderAnalysis(out, table, localized, sub)
	}

	if narrate {
		return narrateAndWait(ctx, cmd.ErrOrStderr(), app, lang)
	}
	return nil
}

// localizedView loads the string table before the analysis so the risk label
// and message come out in the same language as the headings.
func localizedView(ctx context.Context, ui ports.UIStringService, analysis ports.AnalysisService, lang string) (domain.StringTable, *domain.LocalizedAnalysis, error) {
	table, _ := ui.Table(ctx, lang)
	localized, err := analysis.Analysis(ctx, lang)
	if err != nil {
		return nil, nil, err
	}
	localized.Risk = localized.Risk.Localize(table)
	return table, localized, nil
}

// submitWithProgress runs the analysis and reports stage changes as they happen.
func submitWithProgress(ctx context.Context, w io.Writer, app *bootstrap.App) error {
	done := make(chan error, 1)
	go func() {
		_, err := app.Workspace.SubmitWait(ctx, docLang)
		done <- err
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	var last domain.ProgressStage
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			state := app.Workspace.Progress()
			if state.Stage != last && state.Stage.InFlight() {
				fmt.Fprintf(w, "[%d/3] %s...\n", state.Stage.Step(), app.UIStrings.T(domain.SourceLanguage, stageKey(state.Stage)))
				last = state.Stage
			}
		}
	}
}

func stageKey(stage domain.ProgressStage) string {
	switch stage {
	case domain.StageAnalyzing:
		return "stageAnalyzing"
	case domain.StageComplete:
		return "stageComplete"
	default:
		return "stageExtracting"
	}
}

func renderAnalysis(w io.Writer, t domain.StringTable, la *domain.LocalizedAnalysis, sub *domain.Submission) {
	a := la.Analysis
	fmt.Fprintf(w, "%s\n", t.Lookup("analysisComplete"))
	if sub != nil && sub.TotalPages > 1 {
		fmt.Fprintf(w, "%s\n", t.Format("successAnalyzedPages", map[string]string{"pages": strconv.Itoa(sub.TotalPages)}))
	}
	fmt.Fprintf(w, "\n%s: %s\n", t.Lookup("summary"), a.DocumentType())
	if a.DocumentSummary.Purpose != "" {
		fmt.Fprintf(w, "  %s\n", a.DocumentSummary.Purpose)
	}
	if len(a.DocumentSummary.Parties) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(a.DocumentSummary.Parties, ", "))
	}

	fmt.Fprintf(w, "\n%s\n  %s\n", la.Risk.Label, la.Risk.Message)
	fmt.Fprintf(w, "  %d %s, %d %s, %d %s\n",
		la.Risk.RedFlags, flagLabel(t, "redFlags", la.Risk.RedFlags),
		la.Risk.YellowFlags, flagLabel(t, "yellowFlags", la.Risk.YellowFlags),
		la.Risk.PositiveTerms, flagLabel(t, "positiveTerms", la.Risk.PositiveTerms),
	)

	if len(a.YourObligations) > 0 {
		fmt.Fprintf(w, "\n%s\n", t.Lookup("whatYouMustDo"))
		for _, o := range a.YourObligations {
			fmt.Fprintf(w, "  - %s\n", o.Obligation)
		}
	}
	if len(a.YourRights) > 0 {
		fmt.Fprintf(w, "\n%s\n", t.Lookup("whatYouGet"))
		for _, r := range a.YourRights {
			fmt.Fprintf(w, "  - %s\n", r.Right)
		}
	}
	if n := len(a.RiskAnalysis.RedFlags) + len(a.RiskAnalysis.YellowFlags); n > 0 {
		fmt.Fprintf(w, "\n%s\n", t.Lookup("importantWarnings"))
		for _, f := range a.RiskAnalysis.RedFlags {
			fmt.Fprintf(w, "  ! %s: %s\n", f.Issue, f.WhyItMatters)
		}
		for _, f := range a.RiskAnalysis.YellowFlags {
			fmt.Fprintf(w, "  ? %s: %s\n", f.Issue, f.WhyItMatters)
		}
	}
	if qs := a.TopQuestions(topQuestions); len(qs) > 0 {
		fmt.Fprintf(w, "\n%s\n", t.Lookup("questionsToAsk"))
		for i, q := range qs {
			fmt.Fprintf(w, "  %d. %s\n", i+1, q)
		}
		if len(a.QuestionsToAsk) > topQuestions {
			fmt.Fprintf(w, "  %s\n", t.Format("showingTopQuestions", map[string]string{"count": strconv.Itoa(len(a.QuestionsToAsk))}))
		}
	}
	fmt.Fprintf(w, "\n%s\n", t.Lookup("footerDisclaimer"))
}

func flagLabel(t domain.StringTable, key string, n int) string {
	if n == 1 {
		return t.Lookup(key)
	}
	return t.Lookup(key + "Plural")
}

// narrateAndWait plays the spoken summary and returns when it ends. Interrupting
// the command stops playback.
func narrateAndWait(ctx context.Context, w io.Writer, app *bootstrap.App, lang string) error {
	fmt.Fprintln(w, app.UIStrings.T(lang, "generating"))
	if _, err := app.Workspace.Narrate(ctx, lang); err != nil {
		return fmt.Errorf("%s", domain.UserMessage(err, "Narration failed."))
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if status := app.Workspace.NarrationStatus(); status.Playing || status.Generating {
				_, _ = app.Workspace.Narrate(context.Background(), lang)
			}
			return nil
		case <-ticker.C:
			status := app.Workspace.NarrationStatus()
			if status.Playing || status.Generating {
				continue
			}
			if status.Error != "" {
				return fmt.Errorf("%s", status.Error)
			}
			return nil
		}
	}
}
