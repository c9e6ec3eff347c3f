package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/grammar"
	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/dialogue"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a statechart dialogue manager",
	Long: `Parley drives spoken, multi-turn conversations with a hierarchical statechart.
It runs the appointment dialogue in the terminal, serves it over HTTP
or MCP, and renders or validates its chart.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "parley.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// setup loads the configuration and builds the logger every command shares.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.New(level), nil
}

func loadChart() (*chart.Chart, error) {
	c, err := dialogue.Appointment()
	if err != nil {
		return nil, fmt.Errorf("failed to build chart: %w", err)
	}
	return c, nil
}

func loadGrammar(cfg config.Config) (*grammar.Grammar, error) {
	if cfg.Dialogue.Grammar == "" {
		return grammar.Default(), nil
	}
	g, err := grammar.LoadFile(cfg.Dialogue.Grammar)
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar: %w", err)
	}
	return g, nil
}

func version() string {
	return strings.TrimSpace(parley.Version)
}
