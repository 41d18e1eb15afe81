package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"frpengine/internal/frp"
	"frpengine/internal/types"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Print the prompt for one level without calling a model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, _ := cmd.Flags().GetString("level")
		level, ok := types.ParseLevel(raw)
		if !ok {
			return fmt.Errorf("unknown level %q", raw)
		}
		input, err := readInput(cmd)
		if err != nil {
			return err
		}
		question, _ := cmd.Flags().GetString("question")
		dc, err := domainContext(cmd)
		if err != nil {
			return err
		}
		prior := map[types.Level]string{}
		for _, l := range level.Before() {
			text, _ := cmd.Flags().GetString("prior-" + string(l))
			if text != "" {
				prior[l] = text
			}
		}
		prompt, err := frp.Compose(level, input, question, dc, prior)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), prompt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)
	addInputFlags(composeCmd)
	addDomainFlags(composeCmd)
	composeCmd.Flags().String("level", "L1", "Level to compose")
	for _, l := range types.AllLevels[:len(types.AllLevels)-1] {
		composeCmd.Flags().String("prior-"+string(l), "", fmt.Sprintf("Captured %s output", l))
	}
}
