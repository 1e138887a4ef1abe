package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/proofloop/internal/config"
	"github.com/abhisek/proofloop/internal/store"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "proofloop",
	Short: "Understanding checkpoints for AI tutoring",
	Long: "proofloop pauses a tutoring conversation every few teaching exchanges and asks the\n" +
		"student to explain the idea back, then records whether they understood it.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if p, _ := cmd.Flags().GetString("db"); p != "" {
			loaded.DB.Path = p
		}
		log, err := loaded.Log.NewLogger()
		if err != nil {
			return err
		}
		cfg, logger = loaded, log
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PROOFLOOP_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.config/proofloop/config.yaml)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(proofCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// openStore opens the database at the path resolved from --db, config, then
// PROOFLOOP_DB and the default XDG location.
func openStore() (*store.Store, error) {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
