// Command squadctl holds operator tooling for the squadhub service: dev
// tokens, service key hashes and plan catalog checks.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"squadhub-service/internal/pkg/jwt"
	entsvc "squadhub-service/internal/service/entitlement"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "squadctl",
		Short:         "Operator tooling for the squadhub entitlement service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newTokenCmd(), newServiceKeyCmd(), newPlansCmd())
	return root
}

func newTokenCmd() *cobra.Command {
	var (
		keyPath  string
		issuer   string
		audience string
		roles    []string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a development access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := jwt.LoadRSAPrivateKeyFromPEM(keyPath)
			if err != nil {
				return err
			}
			gen := jwt.NewGenerator(priv, issuer, audience, "", ttl)
			token, _, err := gen.GenerateAccessToken(args[0], roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "jwt_private.pem", "RSA private key (PEM)")
	cmd.Flags().StringVar(&issuer, "issuer", "squadhub-identity", "token issuer")
	cmd.Flags().StringVar(&audience, "audience", "squadhub-api", "token audience")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func newServiceKeyCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "service-key-hash <key>",
		Short: "Print the bcrypt hash to put in SERVICE_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args[0]) < 16 {
				return errors.New("service key must be at least 16 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func newPlansCmd() *cobra.Command {
	plans := &cobra.Command{
		Use:   "plans",
		Short: "Inspect plan catalogs",
	}

	plans.AddCommand(&cobra.Command{
		Use:   "validate [catalog.json]",
		Short: "Validate a catalog file, or the built-in plans when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			catalog, err := entsvc.LoadCatalog(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range catalog.All() {
				fmt.Fprintf(out, "%-12s %8.2f %s/%s  teams=%d players=%d matches=%d\n",
					p.ID, p.Price, p.Currency, p.BillingInterval,
					p.Limits.MaxTeams, p.Limits.MaxPlayers, p.Limits.MaxMatches)
			}
			return nil
		},
	})
	return plans
}
