package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/vivo/internal/webhook"
)

var errBadSignature = errors.New("signature does not match payload")

func newVerifySignatureCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "verify-signature <payload.json|-> <signature>",
		Short: "Check a webhook body against its " + webhook.HeaderSignature + " header",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("WEBHOOK_SECRET")
			}
			if secret == "" {
				return errors.New("a secret is required: --secret or WEBHOOK_SECRET")
			}

			payload, err := readPayload(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if !webhook.Verify(secret, payload, args[1]) {
				return errBadSignature
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Webhook secret (defaults to WEBHOOK_SECRET)")

	return cmd
}

// readPayload reads the raw body byte for byte; "-" is stdin
func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return raw, nil
}
