package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/haileyok/seneca/api"
	"github.com/haileyok/seneca/client"
	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/signature"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/urfave/cli/v2"
)

func main() {
	newApp().Run(os.Args)
}

func newApp() *cli.App {
	return &cli.App{
		Name: "admin",
		Commands: cli.Commands{
			runCreateKeypair,
			runCreatePrivateJwk,
			runPublishSchema,
			runPublishCredential,
			runDeleteSchema,
			runDeleteCredential,
		},
		ErrWriter: os.Stdout,
	}
}

type keyFile struct {
	Scheme string `json:"scheme"`
	Seed   string `json:"seed"`
	Did    string `json:"did"`
}

var runCreateKeypair = &cli.Command{
	Name:  "create-keypair",
	Usage: "creates a signing keypair and prints its did",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "scheme",
			Value: "sr25519",
			Usage: "sr25519 or ed25519",
		},
		&cli.StringFlag{
			Name:  "method",
			Value: did.DefaultMethod,
			Usage: "did method to encode the key under",
		},
		&cli.StringFlag{
			Name:     "out",
			Required: true,
			Usage:    "output file for your keypair",
		},
	},
	Action: func(cmd *cli.Context) error {
		scheme, err := signature.ParseScheme(cmd.String("scheme"))
		if err != nil {
			return err
		}

		kp, err := signature.GenerateKeyPair(scheme)
		if err != nil {
			return err
		}

		codec := did.NewCodec()
		codec.Method = cmd.String("method")

		seed := kp.Seed()
		kf := keyFile{
			Scheme: string(scheme),
			Seed:   hex.EncodeToString(seed[:]),
			Did:    codec.Encode(kp.Public()),
		}

		b, err := json.MarshalIndent(kf, "", "  ")
		if err != nil {
			return err
		}

		if err := os.WriteFile(cmd.String("out"), b, 0600); err != nil {
			return err
		}

		fmt.Printf("New %s keypair written to %s: %s\n", scheme, cmd.String("out"), kf.Did)

		return nil
	},
}

var runCreatePrivateJwk = &cli.Command{
	Name:  "create-private-jwk",
	Usage: "creates a private jwk for signing registry sessions",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "out",
			Required: true,
			Usage:    "output file for your jwk",
		},
	},
	Action: func(cmd *cli.Context) error {
		privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return err
		}

		key, err := jwk.FromRaw(privKey)
		if err != nil {
			return err
		}

		kid := fmt.Sprintf("%d", time.Now().Unix())

		if err := key.Set(jwk.KeyIDKey, kid); err != nil {
			return err
		}

		b, err := json.Marshal(key)
		if err != nil {
			return err
		}

		if err := os.WriteFile(cmd.String("out"), b, 0644); err != nil {
			return err
		}

		return nil
	},
}

var clientFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "server",
		Required: true,
		Usage:    "registry url, e.g. https://registry.example.com",
		EnvVars:  []string{"SENECA_SERVER"},
	},
	&cli.StringFlag{
		Name:     "key",
		Required: true,
		Usage:    "keypair file written by create-keypair",
	},
	&cli.Uint64Flag{
		Name:     "id",
		Required: true,
		Usage:    "schema or credential id",
	},
}

var recordFlags = append([]cli.Flag{
	&cli.StringFlag{
		Name:     "in",
		Required: true,
		Usage:    "json record to publish",
	},
	&cli.BoolFlag{
		Name:  "update",
		Usage: "replace an existing record instead of creating one",
	},
}, clientFlags...)

func loadKeyFile(path string) (*keyFile, signature.KeyPair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var kf keyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return nil, nil, fmt.Errorf("error parsing key file: %w", err)
	}

	scheme, err := signature.ParseScheme(kf.Scheme)
	if err != nil {
		return nil, nil, err
	}

	raw, err := hex.DecodeString(kf.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding seed: %w", err)
	}

	if len(raw) != signature.SeedSize {
		return nil, nil, fmt.Errorf("seed must be %d bytes, got %d", signature.SeedSize, len(raw))
	}

	var seed [signature.SeedSize]byte
	copy(seed[:], raw)

	kp, err := signature.KeyPairFromSeed(scheme, seed)
	if err != nil {
		return nil, nil, err
	}

	return &kf, kp, nil
}

// newSessionClient loads the key file and opens a session with the registry.
func newSessionClient(ctx context.Context, cmd *cli.Context) (*client.Client, error) {
	kf, kp, err := loadKeyFile(cmd.String("key"))
	if err != nil {
		return nil, err
	}

	c, err := client.NewClient(&client.ClientArgs{
		Service: cmd.String("server"),
		Did:     kf.Did,
		KeyPair: kp,
	})
	if err != nil {
		return nil, err
	}

	aud, err := c.ServerDid(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching registry did: %w", err)
	}

	if err := c.CreateSession(ctx, aud); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return c, nil
}

// recordID reads the --id flag, rejecting values that do not fit a record id.
func recordID(cmd *cli.Context) (uint32, error) {
	id := cmd.Uint64("id")
	if id > math.MaxUint32 {
		return 0, fmt.Errorf("id %d is out of range, max is %d", id, uint32(math.MaxUint32))
	}
	return uint32(id), nil
}

func printResponse(resp *api.MutationResponse) {
	if resp.Cid != "" {
		fmt.Printf("Record %d written with cid %s (registry nonce %d)\n", resp.ID, resp.Cid, resp.Nonce)
		return
	}
	fmt.Printf("Record %d deleted (registry nonce %d)\n", resp.ID, resp.Nonce)
}

var runPublishSchema = &cli.Command{
	Name:  "publish-schema",
	Usage: "signs a json schema with your key and publishes it",
	Flags: recordFlags,
	Action: func(cmd *cli.Context) error {
		ctx := cmd.Context

		id, err := recordID(cmd)
		if err != nil {
			return err
		}

		b, err := os.ReadFile(cmd.String("in"))
		if err != nil {
			return err
		}

		var in api.Schema
		if err := json.Unmarshal(b, &in); err != nil {
			return fmt.Errorf("error parsing schema: %w", err)
		}

		c, err := newSessionClient(ctx, cmd)
		if err != nil {
			return err
		}

		if in.Creator == "" {
			in.Creator = api.Bytes(c.Did())
		}

		schema, err := api.ToSchema(&in)
		if err != nil {
			return err
		}

		var resp *api.MutationResponse
		if cmd.Bool("update") {
			resp, err = c.UpdateSchema(ctx, id, schema)
		} else {
			resp, err = c.CreateSchema(ctx, id, schema)
		}
		if err != nil {
			return err
		}

		printResponse(resp)

		return nil
	},
}

var runPublishCredential = &cli.Command{
	Name:  "publish-credential",
	Usage: "signs a json credential with your key and publishes it",
	Flags: recordFlags,
	Action: func(cmd *cli.Context) error {
		ctx := cmd.Context

		id, err := recordID(cmd)
		if err != nil {
			return err
		}

		b, err := os.ReadFile(cmd.String("in"))
		if err != nil {
			return err
		}

		var in api.Credential
		if err := json.Unmarshal(b, &in); err != nil {
			return fmt.Errorf("error parsing credential: %w", err)
		}

		c, err := newSessionClient(ctx, cmd)
		if err != nil {
			return err
		}

		if in.Issuer == "" {
			in.Issuer = api.Bytes(c.Did())
		}

		vc, err := api.ToCredential(&in)
		if err != nil {
			return err
		}

		var resp *api.MutationResponse
		if cmd.Bool("update") {
			resp, err = c.UpdateCredential(ctx, id, vc)
		} else {
			resp, err = c.CreateCredential(ctx, id, vc)
		}
		if err != nil {
			return err
		}

		printResponse(resp)

		return nil
	},
}

var runDeleteSchema = &cli.Command{
	Name:  "delete-schema",
	Usage: "deletes a schema you own",
	Flags: clientFlags,
	Action: func(cmd *cli.Context) error {
		id, err := recordID(cmd)
		if err != nil {
			return err
		}

		c, err := newSessionClient(cmd.Context, cmd)
		if err != nil {
			return err
		}

		resp, err := c.DeleteSchema(cmd.Context, id)
		if err != nil {
			return err
		}

		printResponse(resp)

		return nil
	},
}

var runDeleteCredential = &cli.Command{
	Name:  "delete-credential",
	Usage: "deletes a credential you issued",
	Flags: clientFlags,
	Action: func(cmd *cli.Context) error {
		id, err := recordID(cmd)
		if err != nil {
			return err
		}

		c, err := newSessionClient(cmd.Context, cmd)
		if err != nil {
			return err
		}

		resp, err := c.DeleteCredential(cmd.Context, id)
		if err != nil {
			return err
		}

		printResponse(resp)

		return nil
	},
}
