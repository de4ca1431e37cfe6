package main

import (
	"fmt"
	"io"
	"os"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/BlockchainCommons/hubert-go/internal/envelope"
	"github.com/BlockchainCommons/hubert-go/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newPutCmd() *cobra.Command {
	var forceCAS bool

	cmd := &cobra.Command{
		Use:   "put <arid>",
		Short: "Publish stdin's contents under the given ARID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := arid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse arid: %w", err)
			}
			payload, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}

			log := zerolog.Ctx(cmd.Context()).With().Logger()
			driver, err := buildDriver(cmd.Context(), log)
			if err != nil {
				return err
			}

			env := envelope.New([]byte(args[0]), envelope.Assertion{Predicate: "payload", Object: payload})
			receipt, err := driver.Put(cmd.Context(), a, env, storage.PutOptions{
				TTL:      cfg.TTL,
				Pin:      cfg.Pin,
				ForceCAS: forceCAS,
			})
			if err != nil {
				return err
			}
			fmt.Println(receipt.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceCAS, "force-cas", false, "route through CAS even if small enough for direct DHT storage (hybrid backend only)")
	return cmd
}
