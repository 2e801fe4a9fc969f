// This file contains the one-shot run command.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"capscout/internal/browser"
	"capscout/internal/config"
	"capscout/internal/dataset"
	"capscout/internal/history"
	"capscout/internal/orchestrator"
	"capscout/internal/parser"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single collection run and print the result as JSON",
	RunE:  runOnce,
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	session := browser.NewManager(cfg.Browser, logger.Named("browser"))
	defer session.Dispose()

	hist, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer hist.Close()

	writer := dataset.NewWriter(cfg.DatasetPath)
	orch := orchestrator.New(cfg.Run, session, parser.New(), writer, hist, logger.Named("orchestrator"))

	result := orch.Run(cmd.Context())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Success {
		return errors.New(result.Error)
	}
	return nil
}
