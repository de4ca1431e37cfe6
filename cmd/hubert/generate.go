package main

import (
	"fmt"
	"strconv"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/BlockchainCommons/hubert-go/internal/envelope"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate ARIDs and demo envelopes",
	}
	cmd.AddCommand(newGenerateAridCmd())
	cmd.AddCommand(newGenerateEnvelopeCmd())
	return cmd
}

func newGenerateAridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "arid",
		Short: "Print a freshly generated ARID",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := arid.New()
			if err != nil {
				return err
			}
			fmt.Println(a.String())
			return nil
		},
	}
}

func newGenerateEnvelopeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "envelope <byte-count>",
		Short: "Print the serialized size of a demo envelope holding N filler bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("byte-count must be an integer: %w", err)
			}
			filler := make([]byte, n)
			e := envelope.New([]byte("demo-subject"), envelope.Assertion{Predicate: "payload", Object: filler})
			fmt.Printf("serialized-size: %d bytes\n", e.Size())
			return nil
		},
	}
}
