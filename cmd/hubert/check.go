package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anacrolix/dht/v2"
	rpc "github.com/ipfs/kubo/client/rpc"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe liveness of the configured backend's transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.Ctx(cmd.Context()).With().Logger()
			switch cfg.Storage {
			case "dht":
				return checkDHT(cmd.Context(), log)
			case "cas":
				return checkCAS(cmd.Context(), log)
			case "server":
				return checkServer(cmd.Context(), log)
			case "hybrid":
				if err := checkDHT(cmd.Context(), log); err != nil {
					return err
				}
				return checkCAS(cmd.Context(), log)
			default:
				return fmt.Errorf("unknown storage backend %q", cfg.Storage)
			}
		},
	}
}

func checkDHT(ctx context.Context, log zerolog.Logger) error {
	srv, err := dht.NewServer(nil)
	if err != nil {
		return fmt.Errorf("dht: %w", err)
	}
	defer srv.Close()
	stats := srv.Stats()
	fmt.Printf("dht: ok, known nodes: %d\n", stats.Nodes)
	return nil
}

func checkCAS(ctx context.Context, log zerolog.Logger) error {
	api, err := rpc.NewLocalApi()
	if err != nil {
		return fmt.Errorf("cas: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	id, err := api.Key().Self(ctx)
	if err != nil {
		return fmt.Errorf("cas: daemon id check failed: %w", err)
	}
	fmt.Printf("cas: ok, node id: %s\n", id.ID().String())
	return nil
}

func checkServer(ctx context.Context, log zerolog.Logger) error {
	url := fmt.Sprintf("http://%s:%d/health", cfg.Host, cfg.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server: unhealthy, status %d", resp.StatusCode)
	}
	fmt.Println("server: ok")
	return nil
}
