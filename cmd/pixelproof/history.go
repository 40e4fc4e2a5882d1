package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixelproof/pixelproof/internal/fingerprint"
	"github.com/pixelproof/pixelproof/internal/model"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <fingerprint|image>",
		Short: "Look up the local verification history",
		Long: `Look up what the pipeline previously answered for a fingerprint. The
argument is either a 64-character hex fingerprint or an image path to
fingerprint on the fly.

The history log is diagnostic: it records what was told to the user and
never overrides the ledger.`,
		Args: cobra.ExactArgs(1),
		RunE: runHistory,
	}
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fp, err := resolveFingerprint(args[0])
	if err != nil {
		return err
	}

	store, err := openHistory(ctx, true)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close history database", "error", closeErr)
		}
	}()

	entry, err := store.Lookup(ctx, fp)
	if err != nil {
		return err
	}
	if entry == nil {
		cmd.Printf("no history for %s\n", fp)
		return nil
	}

	cmd.Printf("fingerprint: %s\n", entry.Fingerprint)
	cmd.Printf("label:       %s (confidence %.4f)\n", entry.Label, entry.Confidence)
	cmd.Printf("source:      %s\n", entry.Source)
	if entry.Submitter != "" {
		cmd.Printf("submitter:   %s\n", entry.Submitter)
	}
	cmd.Printf("recorded at: %s\n", entry.RecordedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// resolveFingerprint accepts either a hex fingerprint or an image path.
func resolveFingerprint(arg string) (model.Fingerprint, error) {
	if fp, err := model.ParseFingerprint(arg); err == nil {
		return fp, nil
	}

	content, err := os.ReadFile(arg)
	if err != nil {
		return model.Fingerprint{}, fmt.Errorf("%q is neither a fingerprint nor a readable file: %w", arg, err)
	}
	return fingerprint.Compute(content)
}
