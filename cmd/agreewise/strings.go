package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agreewise/agreewise/internal/core/domain"
)

var stringsLang string

var stringsCmd = &cobra.Command{
	Use:   "strings",
	Short: "Print the interface strings for a language",
	Long: `Strings translates the interface string table into --lang, stores the
result in the translation cache and prints it. On failure the English table is
printed and the reason goes to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		table, err := app.UIStrings.SetLanguage(cmd.Context(), stringsLang)
		if domain.IsKind(err, domain.ErrInvalidInput) {
			return err
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "translation failed, showing English: %s\n", domain.UserMessage(err, "Translation failed"))
		}
		return printJSON(cmd.OutOrStdout(), table)
	},
}

func init() {
	stringsCmd.Flags().StringVar(&stringsLang, "lang", "en", "target language code")
}
