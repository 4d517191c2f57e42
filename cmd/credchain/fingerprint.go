package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"credchain/internal/canonical"
	"credchain/internal/fingerprint"
)

// fingerprintCommand computes a certificate fingerprint offline so a third
// party holding the document and its metadata can compare it with the ledger.
func fingerprintCommand() *cobra.Command {
	var meta string
	cmd := &cobra.Command{
		Use:   "fingerprint <file>",
		Short: "Compute the fingerprint of a document and its metadata",
		Args:  cobra.ExactArgs(1),
		// Works without any service configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, canonicalMeta, err := computeFingerprint(args[0], meta)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "metadata:    %s\n", canonicalMeta)
			fmt.Fprintf(out, "fingerprint: %s\n", fp.Hex0x())
			return nil
		},
	}
	cmd.Flags().StringVar(&meta, "meta", "{}", "certificate metadata as JSON")
	return cmd
}

func computeFingerprint(path, meta string) (fingerprint.Fingerprint, []byte, error) {
	document, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read document: %w", err)
	}
	if meta == "" {
		meta = "{}"
	}
	v, err := canonical.Parse([]byte(meta))
	if err != nil {
		return "", nil, fmt.Errorf("parse metadata: %w", err)
	}
	canonicalMeta := canonical.Encode(v)
	return fingerprint.Bind(document, canonicalMeta), canonicalMeta, nil
}
