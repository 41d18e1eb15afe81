package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"frpengine/internal/document"
	"frpengine/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the pipeline as MCP tools",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		docs, err := document.NewRoot(a.cfg.DocsRoot)
		if err != nil {
			return err
		}
		s := mcp.NewServer(version, a.pipeline, st, a.log, mcp.WithDocuments(docs))
		transport, _ := cmd.Flags().GetString("transport")
		switch transport {
		case "stdio":
			return s.ServeStdio()
		case "sse":
			port, _ := cmd.Flags().GetInt("port")
			return s.ServeSSE(ctx, fmt.Sprintf(":%d", port), fmt.Sprintf("http://localhost:%d", port))
		}
		return fmt.Errorf("unknown transport %q", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the sse transport")
}
