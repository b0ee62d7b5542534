package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/immxrtalbeast/codecollab/internal/config"
	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/identity"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	userID string
	name   string
	ttl    time.Duration
}

func newTokenCmd(root *rootOptions) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for local testing",
		Long:  "Signs a token with the configured secret. Only meant for development; production tokens come from the identity provider.",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := signToken(config.MustLoad(root.configPath), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user-id", "", "user id placed in the sub claim")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func signToken(cfg *config.Config, opts *tokenOptions) (string, error) {
	if opts.userID == "" {
		return "", errors.New("--user-id is required")
	}
	ttl := opts.ttl
	if ttl == 0 {
		ttl = cfg.Auth.TokenTTL
	}

	provider := identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	return provider.Sign(domain.Identity{UserID: opts.userID, DisplayName: opts.name}, ttl)
}
