package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/betbot/golemon/pkg/secretstore"
)

func credentialsCommand() *cli.Command {
	storeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Usage:   "badger secret store `DIR`",
			Value:   "data/secrets.badger",
			Sources: cli.EnvVars("LEMON_SECRETSTORE_PATH"),
		},
		&cli.StringFlag{
			Name:    "store-key",
			Usage:   "store encryption key (32 bytes, hex or base64)",
			Sources: cli.EnvVars("LEMON_SECRETSTORE_KEY"),
		},
		&cli.StringFlag{
			Name:  "space",
			Usage: "paper or money",
			Value: "paper",
		},
	}

	return &cli.Command{
		Name:  "credentials",
		Usage: "Manage API credentials in the encrypted secret store",
		Commands: []*cli.Command{
			{
				Name:  "put",
				Usage: "Store a key and secret",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "key", Required: true},
					&cli.StringFlag{Name: "secret", Required: true},
				}, storeFlags...),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withStore(cmd, func(s *secretstore.Store, space string) error {
						return s.PutCredential(space, cmd.String("key"), cmd.String("secret"))
					})
				},
			},
			{
				Name:      "import",
				Usage:     "Store LEMON_API_KEY and LEMON_API_SECRET read from a dotenv file",
				ArgsUsage: "[file]",
				Flags:     storeFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						path = ".env"
					}
					env, err := godotenv.Read(path)
					if err != nil {
						return err
					}
					key, secret := strings.TrimSpace(env["LEMON_API_KEY"]), strings.TrimSpace(env["LEMON_API_SECRET"])
					if key == "" || secret == "" {
						return fmt.Errorf("%s lacks LEMON_API_KEY or LEMON_API_SECRET", path)
					}
					return withStore(cmd, func(s *secretstore.Store, space string) error {
						return s.PutCredential(space, key, secret)
					})
				},
			},
			{
				Name:  "delete",
				Usage: "Remove the stored credential",
				Flags: storeFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withStore(cmd, func(s *secretstore.Store, space string) error {
						return s.DeleteCredential(space)
					})
				},
			},
		},
	}
}

func withStore(cmd *cli.Command, fn func(*secretstore.Store, string) error) error {
	space := strings.ToLower(strings.TrimSpace(cmd.String("space")))
	if space != "paper" && space != "money" {
		return fmt.Errorf("space must be paper or money, got %q", space)
	}
	key, err := secretstore.ParseKey(cmd.String("store-key"))
	if err != nil {
		return err
	}
	if key == nil {
		return fmt.Errorf("store key is required: set LEMON_SECRETSTORE_KEY or pass --store-key")
	}

	store, err := secretstore.Open(secretstore.OpenOptions{Path: cmd.String("store"), EncryptionKey: key})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := fn(store, space); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s credential updated in %s\n", space, cmd.String("store"))
	return nil
}
