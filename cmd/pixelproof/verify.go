package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pixelproof/pixelproof/internal/model"
	"github.com/pixelproof/pixelproof/internal/verify"
)

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [image]",
		Short: "Verify the authenticity of an image",
		Long: `Verify an image against the authenticity ledger, falling back to the
classifier when no claim exists. Real verdicts are registered as new
ledger claims.

Examples:
  pixelproof verify photo.jpg
  pixelproof verify photo.jpg --submitter alice@example.com
  pixelproof verify --dir ./photos    # batch-verify a directory`,
		Args: cobra.MaximumNArgs(1),
		RunE: runVerify,
	}

	cmd.Flags().StringP("dir", "d", "", "verify every image in a directory")
	cmd.Flags().StringP("submitter", "s", "", "submitter identity recorded with new claims")

	_ = viper.BindPFlag("verify.dir", cmd.Flags().Lookup("dir"))
	_ = viper.BindPFlag("verify.submitter", cmd.Flags().Lookup("submitter"))

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := viper.GetString("verify.dir")
	meta := model.SubmitterMetadata{Identity: viper.GetString("verify.submitter")}

	if dir == "" && len(args) == 0 {
		return fmt.Errorf("provide an image path or --dir")
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

	engine, err := buildEngine(store)
	if err != nil {
		return err
	}

	if dir != "" {
		return verifyDirectory(ctx, cmd, engine, dir, meta)
	}

	result, err := verifyFile(ctx, engine, args[0], meta)
	if err != nil {
		return err
	}
	printResult(cmd, args[0], result)
	return nil
}

func verifyFile(ctx context.Context, engine *verify.Engine, path string, meta model.SubmitterMetadata) (*model.VerificationResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return engine.Verify(ctx, content, meta)
}

func verifyDirectory(ctx context.Context, cmd *cobra.Command, engine *verify.Engine, dir string, meta model.SubmitterMetadata) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	if len(paths) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Verifying images..."),
	)

	failures := 0
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, verifyErr := verifyFile(ctx, engine, path, meta)
		if verifyErr != nil {
			failures++
			slog.Error("Verification failed", "path", path, "error", verifyErr)
		} else {
			printResult(cmd, path, result)
		}
		if barErr := bar.Add(1); barErr != nil {
			slog.Warn("Failed to update progress bar", "error", barErr)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d images failed verification", failures, len(paths))
	}
	return nil
}

func printResult(cmd *cobra.Command, path string, result *model.VerificationResult) {
	cmd.Printf("%s\n", path)
	cmd.Printf("  fingerprint: %s\n", result.Fingerprint)
	cmd.Printf("  label:       %s (confidence %.4f)\n", result.Label, result.Confidence)
	cmd.Printf("  provenance:  %s\n", describeProvenance(result))
	if result.LedgerTxID != "" {
		cmd.Printf("  ledger tx:   %s\n", result.LedgerTxID)
	}
	if result.Claim != nil {
		cmd.Printf("  claimed by:  %s at %s\n", result.Claim.Submitter, result.Claim.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
}

func describeProvenance(result *model.VerificationResult) string {
	switch result.Provenance {
	case model.ProvenanceLedger:
		return "existing ledger claim"
	case model.ProvenanceRegistered:
		return "newly registered ledger claim"
	case model.ProvenanceClassifierOnly:
		if !result.LedgerConsulted {
			return "classifier only (ledger not consulted)"
		}
		return "classifier only (not registered)"
	default:
		return string(result.Provenance)
	}
}
