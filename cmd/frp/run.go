package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"frpengine/internal/frp"
	"frpengine/internal/llm"
	"frpengine/internal/store"
	"frpengine/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reasoning pipeline over a document",
	Example: `  frp run -i contract.txt -q "Which obligations survive termination?" -l L1,L2,L3
  frp run --preset constitutional -i treaty.md -q "Is sovereignty ceded?" --render`,
	RunE: runAnalysis,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addInputFlags(runCmd)
	addPipelineFlags(runCmd)
	runCmd.Flags().Bool("render", false, "Render narrative output as styled markdown for the terminal")
	runCmd.Flags().Bool("save", false, "Persist the analysis to the configured store")
	runCmd.Flags().String("resume", "", "ID of a stored analysis whose levels seed this run")
	runCmd.Flags().Bool("trace", false, "Log every prompt and response size")
}

// traceHook logs each generation call at info level.
type traceHook struct{ log *zap.Logger }

func (h traceHook) Before(_ context.Context, level types.Level, prompt string) {
	h.log.Info("prompt", zap.String("level", string(level)), zap.Int("bytes", len(prompt)))
}

func (h traceHook) After(_ context.Context, level types.Level, text string, err error) {
	h.log.Info("response", zap.String("level", string(level)), zap.Int("bytes", len(text)), zap.Error(err))
}

func runAnalysis(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	input, err := readInput(cmd)
	if err != nil {
		return err
	}
	question, _ := cmd.Flags().GetString("question")
	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}

	save, _ := cmd.Flags().GetBool("save")
	resumeID, _ := cmd.Flags().GetString("resume")
	var st store.Store
	if save || resumeID != "" {
		if st, err = a.openStore(ctx); err != nil {
			return err
		}
		defer st.Close()
	}
	var resume map[types.Level]types.LevelOutput
	if resumeID != "" {
		rec, err := st.Get(ctx, resumeID)
		if err != nil {
			return fmt.Errorf("load %s: %w", resumeID, err)
		}
		resume = make(map[types.Level]types.LevelOutput, len(rec.Analysis.Levels))
		for _, out := range rec.Analysis.Levels {
			resume[out.Level] = out
		}
	}

	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		ctx = llm.ContextWithHook(ctx, traceHook{log: a.log})
	}
	ctx = frp.ContextWithObserver(ctx, frp.ObserverFunc(func(e frp.Event) {
		switch e.Kind {
		case frp.StageStarted:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s...\n", e.Level, e.Title)
		case frp.StageFailed:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s failed: %s\n", e.Level, e.Error)
		}
	}))

	analysis, runErr := a.pipeline.Run(ctx, cfg, input, question, resume)
	if analysis == nil {
		return runErr
	}
	if runErr == nil && save {
		rec := store.NewRecord(analysis, time.Now())
		if err := st.Put(ctx, rec); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved analysis %s\n", rec.ID)
	}

	text, err := frp.Render(analysis, cfg.OutputFormat)
	if err != nil {
		return err
	}
	if render, _ := cmd.Flags().GetBool("render"); render && cfg.OutputFormat == types.FormatNarrative {
		text, err = renderMarkdown(text)
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return runErr
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
