package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cxc-checkin/internal/jwt"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <profile-id>",
	Short: "Mint a session token for local development",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := provider.GetProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		email := ""
		if profile.Email != nil {
			email = *profile.Email
		}
		token, claims, err := jwt.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.Audience).Generate(profile.ID, email, tokenTTL)
		if err != nil {
			return err
		}

		fmt.Println(token)
		fmt.Printf("\nexpires: %s\n", claims.ExpiresAt.Time.Local().Format(time.DateTime))
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
