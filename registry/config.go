package registry

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/haileyok/seneca/signature"
)

type Config struct {
	// EnforceExpiry rejects mutations of expired records and credentials
	// against expired schemas.
	EnforceExpiry bool
	// RequireIncreasingNonce rejects updates whose nonce does not exceed the stored one.
	RequireIncreasingNonce bool
	// Now defaults to time.Now.
	Now func() time.Time
}

func (c *Config) now() Moment {
	now := time.Now
	if c != nil && c.Now != nil {
		now = c.Now
	}
	return Moment(now().UnixMilli())
}

type Args struct {
	Store    Store
	Resolver Resolver
	Verifier signature.Verifier
	Events   EventSink
	Config   *Config
	Logger   *slog.Logger
}

func (args *Args) defaults() error {
	if args.Store == nil {
		return fmt.Errorf("store must be set")
	}

	if args.Resolver == nil {
		return fmt.Errorf("resolver must be set")
	}

	if args.Verifier == nil {
		return fmt.Errorf("verifier must be set")
	}

	if args.Events == nil {
		args.Events = nopSink{}
	}

	if args.Config == nil {
		args.Config = &Config{}
	}

	if args.Logger == nil {
		args.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	}

	return nil
}
