// Package cli wires the cobra command tree for the investigation agent.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/config"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/debug"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/runner"
)

var (
	cfg = config.Default()

	flagCheckpoint bool
	flagDebug      bool
	flagImage      string
	flagOutputDir  string

	rootCmd = &cobra.Command{
		Use:   "osint-agent <target-domain>",
		Short: "Automated multi-phase OSINT investigation",
		Long: `osint-agent runs a complete OSINT investigation against a target domain:
subdomain enumeration, intelligence lookups, technology fingerprinting, and
an AI-generated reconnaissance report.

External tools run inside an isolated Docker sandbox with resource limits.
Per-phase tool failures never abort the investigation; they are recorded and
summarized at the end.`,
		Args: cobra.ExactArgs(1),
		RunE: runInvestigation,

		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.Flags().BoolVar(&flagCheckpoint, "checkpoint", false, "Persist state after each phase for resume capability")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Show detailed timing logs for each tool execution")
	rootCmd.Flags().StringVar(&flagImage, "image", "", "Docker tools image (default: osint-tools:latest or OSINT_DOCKER_IMAGE)")
	rootCmd.Flags().StringVarP(&flagOutputDir, "output", "o", "", "Directory for the generated report file (default: current directory)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the command tree. The returned error is an unrecoverable
// setup or investigation-level fault; per-phase tool errors never reach
// here.
func Execute() error {
	return rootCmd.Execute()
}

func runInvestigation(cmd *cobra.Command, args []string) error {
	target := args[0]

	*cfg = *config.Load()
	cfg.Checkpoint = flagCheckpoint
	if flagImage != "" {
		cfg.DockerImage = flagImage
	}
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if flagDebug {
		cfg.Debug = true
		debug.Enable()
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	printBanner(target)

	r, err := runner.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Println("[*] Starting investigation...")
	fmt.Println()

	inv, err := r.Run(cmd.Context(), target)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("INVESTIGATION COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()
	fmt.Println(inv.Report)

	if path, err := saveReport(inv.Target, inv.Report); err != nil {
		color.Yellow("[!] Failed to save report: %v", err)
	} else {
		fmt.Printf("\n[*] Report saved to: %s\n", path)
	}
	return nil
}

// saveReport writes the report next to the working directory, one file per
// target.
func saveReport(target, text string) (string, error) {
	name := fmt.Sprintf("report_%s.md", strings.ReplaceAll(target, ".", "_"))
	path := filepath.Join(cfg.OutputDir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func printBanner(target string) {
	cyan := color.New(color.FgCyan, color.Bold)
	white := color.New(color.FgWhite)

	cyan.Println("+==============================================================+")
	cyan.Println("|           OSINT Multi-Agent Investigation                    |")
	cyan.Println("+==============================================================+")
	white.Printf("|  Target: %-52s|\n", target)
	cyan.Println("+==============================================================+")
	fmt.Println()
}
