package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamer-zq/savekit/internal/api"
	"github.com/dreamer-zq/savekit/internal/config"
)

const neverExpires = "never"

// generateTokenCmd creates a command to generate JWT tokens for API authentication
func generateTokenCmd() *cobra.Command {
	var outputFormat string
	var userID string
	var roles []string
	var expiryHours int

	cmd := &cobra.Command{
		Use:   "generate-token",
		Short: "Generate JWT token for API authentication",
		Long: `Generate a JWT token signed with the node's configured secret and issuer.
Clients pass it to savekit-cli with --token or SAVEKIT_JWT_TOKEN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.Security.APIAuth.Enabled {
				return fmt.Errorf("JWT authentication is not enabled in node configuration")
			}

			if userID == "" {
				userID = "savekit-user"
			}
			ttl := time.Duration(expiryHours) * time.Hour
			token, err := api.IssueToken(cfg.Security.APIAuth, userID, roles, ttl)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			expiresAt := neverExpires
			if expiryHours > 0 {
				expiresAt = time.Now().Add(ttl).Format(time.RFC3339)
			}

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				data, err := json.MarshalIndent(map[string]any{
					"token":      token,
					"user_id":    userID,
					"issuer":     cfg.Security.APIAuth.JWTIssuer,
					"roles":      roles,
					"expires_at": expiresAt,
				}, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			fmt.Fprintf(out, "Token: %s\n", token)
			fmt.Fprintf(out, "User ID: %s\n", userID)
			fmt.Fprintf(out, "Issuer: %s\n", cfg.Security.APIAuth.JWTIssuer)
			fmt.Fprintf(out, "Expires: %s\n", expiresAt)
			fmt.Fprintf(out, "\nUsage:\n  savekit-cli --token=%q get <key>\n", token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID for the token (default: savekit-user)")
	cmd.Flags().StringSliceVarP(&roles, "roles", "r", nil, "Roles for the token")
	cmd.Flags().IntVarP(&expiryHours, "expires", "e", 24, "Token expiry in hours, 0 for no expiration")

	return cmd
}
