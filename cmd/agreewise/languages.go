package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agreewise/agreewise/internal/core/domain"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tNAME\tNATIVE\tSPEECH")
		for _, l := range domain.Languages() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Code, l.Name, l.Native, l.SpeechCode)
		}
		return tw.Flush()
	},
}
