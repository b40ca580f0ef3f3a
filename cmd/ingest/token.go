package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"healthtrends/internal/middleware"
)

var (
	tokenUserID uint
	tokenEmail  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserID == 0 {
			return fmt.Errorf("--user-id is required")
		}
		secret := cfg.JWTSecret
		if secret == "" {
			return fmt.Errorf("JWT_SECRET_KEY is not set")
		}
		token, err := middleware.GenerateToken(secret, tokenUserID, tokenEmail, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().UintVar(&tokenUserID, "user-id", 0, "Subject user id")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
