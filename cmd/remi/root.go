package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"

	"remi/internal/app"
	"remi/internal/capture"
	"remi/internal/chat"
	"remi/internal/config"
	"remi/internal/extract"
	"remi/internal/logging"
	"remi/internal/store"
	"remi/internal/timeline"
)

var (
	flagConfig string
	flagDebug  bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remi",
		Short: "Voice-first reminder assistant",
		Long: "remi turns spoken or typed requests into structured reminders\n" +
			"via a speech daemon and an extraction service. Run without a\n" +
			"subcommand to open the chat.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/remi/config.yaml)")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	cmd.AddCommand(loginCmd())
	cmd.AddCommand(logoutCmd())
	cmd.AddCommand(remindersCmd())
	cmd.AddCommand(locationsCmd())
	cmd.AddCommand(historyCmd())

	return cmd
}

// loadEnv builds the pieces shared by every subcommand.
func loadEnv() (config.Config, *store.Store, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, nil, err
	}
	st, err := store.Open(cfg.DataPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, st, nil
}

// runChat wires the full pipeline and hands the terminal to bubbletea.
func runChat() error {
	cfg, st, err := loadEnv()
	if err != nil {
		return err
	}
	defer st.Close()

	logPath := filepath.Join(filepath.Dir(cfg.DataPath), "remi.log")
	logFile, err := logging.SetupFile(logPath, cfg.Debug || flagDebug)
	if err != nil {
		return err
	}
	defer logFile.Close()

	engine := &capture.DaemonEngine{Socket: cfg.RecognizerSocket}
	session := capture.New(engine, cfg.Locale)
	client := extract.NewClient(cfg.ExtractionBaseURL, st)
	orch := chat.New(timeline.New(), client)

	model := app.New(orch, session, st)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
