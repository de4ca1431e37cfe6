package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/BlockchainCommons/hubert-go/internal/config"
	"github.com/BlockchainCommons/hubert-go/internal/storage"
	"github.com/anacrolix/dht/v2"
	rpc "github.com/ipfs/kubo/client/rpc"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfg        config.Config
	configPath string
	log        zerolog.Logger
)

func newRootCmd() *cobra.Command {
	cfg = config.Default()

	root := &cobra.Command{
		Use:           "hubert",
		Short:         "Write-once key-value substrate over DHT, CAS and HTTP dropbox backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags are already parsed into cfg here; remember the ones set
			// explicitly and re-apply them after the file and env layers.
			explicit := map[string]string{}
			cmd.Flags().Visit(func(f *pflag.Flag) { explicit[f.Name] = f.Value.String() })
			if err := config.LoadFile(&cfg, configPath); err != nil {
				return err
			}
			if err := config.LoadEnv(&cfg); err != nil {
				return err
			}
			for name, v := range explicit {
				if err := cmd.Flags().Set(name, v); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log = newLogger(cfg.Verbose)
			cmd.SetContext(log.WithContext(context.Background()))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "hubert.yaml", "path to YAML config file")
	flags.StringVar(&cfg.Storage, "storage", cfg.Storage, "backend: dht, cas, server, or hybrid")
	flags.StringVar(&cfg.Host, "host", cfg.Host, "server backend host")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "server backend port")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "get poll timeout")
	flags.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "put publication lifetime")
	flags.BoolVar(&cfg.Pin, "pin", cfg.Pin, "pin CAS objects locally")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newPutCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newExistsCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newServerCmd())

	return root
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// buildDriver constructs the Driver named by cfg.Storage. DHT and CAS
// backends are wired to real transports (mainline-DHT via anacrolix/dht,
// the CAS daemon via kubo's RPC client); the Server backend is wired to
// cfg.Host/cfg.Port as a remote dropbox the caller is expected to already
// be running (see the "server" subcommand for hosting one).
func buildDriver(ctx context.Context, log zerolog.Logger) (storage.Driver, error) {
	switch cfg.Storage {
	case config.BackendDHT:
		return newDHTDriver(log)
	case config.BackendCAS:
		return newCASDriver(log)
	case config.BackendServer:
		return newServerDriver(log), nil
	case config.BackendHybrid:
		dhtDriver, err := newDHTDriver(log)
		if err != nil {
			return nil, err
		}
		casDriver, err := newCASDriver(log)
		if err != nil {
			return nil, err
		}
		return storage.NewHybridRouter(dhtDriver, casDriver, log), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

func newDHTDriver(log zerolog.Logger) (*storage.DHTDriver, error) {
	srv, err := dht.NewServer(nil)
	if err != nil {
		return nil, fmt.Errorf("bootstrap mainline-dht node: %w", err)
	}
	return storage.NewDHTDriver(storage.NewAnacrolixMutableStore(srv), log), nil
}

func newCASDriver(log zerolog.Logger) (*storage.CASDriver, error) {
	api, err := rpc.NewLocalApi()
	if err != nil {
		return nil, fmt.Errorf("connect to local ipfs daemon: %w", err)
	}
	names := storage.NewKuboNameService(api)
	content := storage.NewKuboObjectStore(api)
	return storage.NewCASDriver(names, content, log), nil
}

func newServerDriver(log zerolog.Logger) *storage.ServerDriver {
	base := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	return storage.NewServerDriver(base, http.DefaultClient, log)
}
