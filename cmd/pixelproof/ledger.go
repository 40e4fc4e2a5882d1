package main

import (
	"github.com/spf13/cobra"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Interact with the authenticity ledger directly",
	}
	cmd.AddCommand(ledgerLookupCmd())
	cmd.AddCommand(ledgerAddressCmd())
	return cmd
}

func ledgerLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <fingerprint|image>",
		Short: "Read the ledger claim for a fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := resolveFingerprint(args[0])
			if err != nil {
				return err
			}

			client, err := buildLedgerClient()
			if err != nil {
				return err
			}

			claim, err := client.Lookup(cmd.Context(), fp)
			if err != nil {
				return err
			}
			if claim == nil {
				cmd.Printf("no claim for %s\n", fp)
				return nil
			}

			cmd.Printf("fingerprint: %s\n", claim.Fingerprint)
			cmd.Printf("label:       %s (confidence %.4f)\n", claim.Label, claim.Confidence)
			cmd.Printf("submitter:   %s\n", claim.Submitter)
			cmd.Printf("timestamp:   %s\n", claim.Timestamp.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}

func ledgerAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the configured submitting identity's ledger address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := buildLedgerClient()
			if err != nil {
				return err
			}
			if client.Address() == "" {
				cmd.Println("no signing key configured (read-only)")
				return nil
			}
			cmd.Println(client.Address())
			return nil
		},
	}
}
