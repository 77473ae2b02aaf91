package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/haileyok/seneca/server"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
)

var Version = "dev"

func main() {
	app := &cli.App{
		Name:  "seneca",
		Usage: "A DID-authenticated schema and credential registry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				EnvVars: []string{"SENECA_ADDR"},
			},
			&cli.StringFlag{
				Name:    "db-driver",
				Value:   "sqlite",
				Usage:   "sqlite or postgres",
				EnvVars: []string{"SENECA_DB_DRIVER"},
			},
			&cli.StringFlag{
				Name:    "db-name",
				Value:   "seneca.db",
				Usage:   "sqlite file path or postgres dsn",
				EnvVars: []string{"SENECA_DB_NAME"},
			},
			&cli.StringFlag{
				Name:     "did",
				Required: true,
				EnvVars:  []string{"SENECA_DID"},
			},
			&cli.StringFlag{
				Name:     "hostname",
				Required: true,
				EnvVars:  []string{"SENECA_HOSTNAME"},
			},
			&cli.StringFlag{
				Name:     "jwk-path",
				Required: true,
				EnvVars:  []string{"SENECA_JWK_PATH"},
			},
			&cli.StringFlag{
				Name:    "signature-scheme",
				Value:   "sr25519",
				Usage:   "sr25519 or ed25519",
				EnvVars: []string{"SENECA_SIGNATURE_SCHEME"},
			},
			&cli.StringFlag{
				Name:    "did-method",
				Usage:   "if set, only dids with this method are accepted",
				EnvVars: []string{"SENECA_DID_METHOD"},
			},
			&cli.BoolFlag{
				Name:    "verify-checksum",
				Usage:   "reject dids whose ss58 checksum does not verify",
				EnvVars: []string{"SENECA_VERIFY_CHECKSUM"},
			},
			&cli.BoolFlag{
				Name:    "enforce-expiry",
				Usage:   "reject mutations of expired schemas and credentials",
				EnvVars: []string{"SENECA_ENFORCE_EXPIRY"},
			},
			&cli.BoolFlag{
				Name:    "require-increasing-nonce",
				Usage:   "reject updates whose record nonce does not increase",
				EnvVars: []string{"SENECA_REQUIRE_INCREASING_NONCE"},
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   24 * time.Hour,
				EnvVars: []string{"SENECA_SESSION_TTL"},
			},
			&cli.StringFlag{
				Name:    "amqp-url",
				Usage:   "publish registry events to this broker when set",
				EnvVars: []string{"SENECA_AMQP_URL"},
			},
			&cli.StringFlag{
				Name:    "amqp-exchange",
				Value:   "seneca",
				EnvVars: []string{"SENECA_AMQP_EXCHANGE"},
			},
			&cli.StringFlag{
				Name:    "amqp-routing-key",
				Value:   "registry",
				EnvVars: []string{"SENECA_AMQP_ROUTING_KEY"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				EnvVars: []string{"SENECA_DEBUG"},
			},
		},
		Commands: []*cli.Command{
			run,
		},
		ErrWriter: os.Stdout,
		Version:   Version,
	}

	app.Run(os.Args)
}

var run = &cli.Command{
	Name:  "run",
	Usage: "Start the seneca registry",
	Flags: []cli.Flag{},
	Action: func(cmd *cli.Context) error {
		level := slog.LevelInfo
		if cmd.Bool("debug") {
			level = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

		s, err := server.New(&server.Args{
			Addr:                   cmd.String("addr"),
			DbDriver:               cmd.String("db-driver"),
			DbName:                 cmd.String("db-name"),
			Logger:                 logger,
			Did:                    cmd.String("did"),
			Hostname:               cmd.String("hostname"),
			JwkPath:                cmd.String("jwk-path"),
			Version:                Version,
			SignatureScheme:        cmd.String("signature-scheme"),
			DidMethod:              cmd.String("did-method"),
			VerifyChecksum:         cmd.Bool("verify-checksum"),
			EnforceExpiry:          cmd.Bool("enforce-expiry"),
			RequireIncreasingNonce: cmd.Bool("require-increasing-nonce"),
			SessionTTL:             cmd.Duration("session-ttl"),
			AmqpUrl:                cmd.String("amqp-url"),
			AmqpExchange:           cmd.String("amqp-exchange"),
			AmqpRoutingKey:         cmd.String("amqp-routing-key"),
		})
		if err != nil {
			fmt.Printf("error creating seneca: %v", err)
			return err
		}

		if err := s.Serve(cmd.Context); err != nil {
			fmt.Printf("error starting seneca: %v", err)
			return err
		}

		return nil
	},
}
