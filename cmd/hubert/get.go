package main

import (
	"fmt"
	"os"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <arid>",
		Short: "Fetch the value published under the given ARID, writing its payload to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := arid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse arid: %w", err)
			}

			log := zerolog.Ctx(cmd.Context()).With().Logger()
			driver, err := buildDriver(cmd.Context(), log)
			if err != nil {
				return err
			}

			env, err := driver.Get(cmd.Context(), a, cfg.Timeout)
			if err != nil {
				return err
			}
			if env == nil {
				fmt.Fprintln(os.Stderr, "not found within timeout")
				os.Exit(2)
			}
			payload, _ := env.Object("payload")
			_, err = os.Stdout.Write(payload)
			return err
		},
	}
}
