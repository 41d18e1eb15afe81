package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"frpengine/internal/frp"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List the reasoning levels",
	RunE: func(cmd *cobra.Command, _ []string) error {
		levels := frp.Levels()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(levels)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LEVEL\tTITLE\tLENGTH\tFOCUS")
		for _, m := range levels {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Level, m.Title, m.TypicalLength, strings.Join(m.FocusAreas, "; "))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(levelsCmd)
	levelsCmd.Flags().Bool("json", false, "Print as JSON")
}
