package main

import (
	"fmt"
	"net/http"

	hserver "github.com/BlockchainCommons/hubert-go/internal/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Host the Server backend's HTTP dropbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.Ctx(cmd.Context()).With().Logger()
			store := hserver.NewStore()
			defer store.Close()
			handler := hserver.NewHandler(store, log)

			addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
			log.Info().Str("addr", addr).Msg("server: listening")
			return http.ListenAndServe(addr, handler.Router())
		},
	}
}
