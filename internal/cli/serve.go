package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/checkpoint"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/config"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored investigation results over HTTP",
	Long: `Start a read-only HTTP API over the checkpoint store. Useful for browsing
past investigations and pulling reports without rerunning anything.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8787", "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	*cfg = *config.Load()

	store, err := checkpoint.NewSQLiteStore(cfg.CheckpointDir)
	if err != nil {
		return fmt.Errorf("checkpoint store unavailable: %w", err)
	}
	defer store.Close()

	fmt.Printf("[*] Serving investigation results on http://%s\n", serveAddr)
	return server.New(store).Run(serveAddr)
}
