package main

import (
	"fmt"
	"os"

	"github.com/BlockchainCommons/hubert-go/internal/arid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <arid>",
		Short: "Check whether a value is published under the given ARID",
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

			found, err := driver.Exists(cmd.Context(), a)
			if err != nil {
				return err
			}
			fmt.Println(found)
			if !found {
				os.Exit(1)
			}
			return nil
		},
	}
}
