package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/service"
)

var tokenFlags struct {
	user string
	ttl  time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign a token for a directory user with the configured secret",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenFlags.user == "" {
			return fmt.Errorf("--user is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ttl := tokenFlags.ttl
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}
		raw, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(tokenFlags.user, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), raw)
		return nil
	},
}

var caseIDCmd = &cobra.Command{
	Use:   "case-id",
	Short: "Generate a fresh case id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), service.NewCaseID(time.Now()))
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenFlags.user, "user", "", "user id the token is issued to")
	tokenIssueCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd, caseIDCmd)
}
