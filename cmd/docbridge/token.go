package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docbridge/docbridge/internal/config"
	"github.com/docbridge/docbridge/internal/identity"
)

func newTokenCmd() *cobra.Command {
	var (
		configPath string
		userID     string
		role       string
		ttl        string
		secret     string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development token",
		Long: `Signs a token for local development and testing.

The signing secret is taken from --secret, the DOCBRIDGE_AUTH_SECRET
environment variable, or the config file, in that order. When none is
set and stdin is a terminal, the secret is prompted for without echo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, configPath, userID, role, ttl, secret)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "docbridge.yaml", "path to DocBridge config file")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to issue the token for")
	cmd.Flags().StringVarP(&role, "role", "r", "patient", "role claim (patient or doctor)")
	cmd.Flags().StringVar(&ttl, "ttl", "", "token lifetime (defaults to auth.token_ttl)")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (overrides config and environment)")
	cmd.MarkFlagRequired("user")
	return cmd
}

func runToken(cmd *cobra.Command, configPath, userID, role, ttl, secret string) error {
	if secret == "" {
		secret = os.Getenv("DOCBRIDGE_AUTH_SECRET")
	}

	ttlDefault := "168h"
	if cfg, err := config.Load(configPath); err == nil {
		if secret == "" {
			secret = cfg.Auth.Secret
		}
		ttlDefault = cfg.Auth.TokenTTL
	}
	if ttl == "" {
		ttl = ttlDefault
	}

	if secret == "" {
		s, err := promptSecret(cmd)
		if err != nil {
			return err
		}
		secret = s
	}
	if secret == "" {
		return fmt.Errorf("no signing secret (use --secret, DOCBRIDGE_AUTH_SECRET, or the config file)")
	}

	lifetime, err := time.ParseDuration(ttl)
	if err != nil {
		return fmt.Errorf("parse ttl %q: %w", ttl, err)
	}

	tok, err := identity.Sign(secret, userID, role, lifetime)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}

// promptSecret reads the secret without echo when stdin is a terminal.
func promptSecret(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Signing secret: ")
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return string(data), nil
}
