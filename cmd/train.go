package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"nudge/internal/config"
	"nudge/internal/corpus"
	"nudge/internal/logger"
	"nudge/internal/store"
)

var trainInput string

// trainCmd is the offline batch job that turns a raw command corpus into
// the serving artifacts. The server never reads the corpus directly; its
// only contract with training is the artifact shapes in the store.
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Build serving artifacts from a command corpus",
	Long: `Read a historical command corpus (CSV with an auto-detected command
column, or a plain/zsh history file), derive the known-command list, the
sequence-transition table, and the similarity corpus, and write them to
the artifact store.`,
	Example: `  nudge train --input commands.csv
  nudge train --input ~/.zsh_history`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVarP(&trainInput, "input", "i", "", "corpus file (CSV or history lines)")
	trainCmd.MarkFlagRequired("input")
}

func runTrain(cmd *cobra.Command, args []string) error {
	log := logger.With("train")
	cfg := config.Get()

	commands, err := corpus.ReadFile(trainInput)
	if err != nil {
		return err
	}
	if len(commands) == 0 {
		return fmt.Errorf("no commands found in %s", trainInput)
	}
	log.Info("corpus loaded", "file", trainInput, "commands", len(commands))

	arts := corpus.BuildArtifacts(commands)

	st, err := store.Open(cfg.Artifacts.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveArtifacts(arts); err != nil {
		return fmt.Errorf("failed to save artifacts: %w", err)
	}

	log.Info("artifacts saved",
		"path", st.Path(),
		"known_commands", len(arts.KnownCommands),
		"transition_keys", len(arts.Transitions),
	)
	return nil
}
