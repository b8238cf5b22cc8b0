package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"profitlens/internal/domain/auth"
	"profitlens/internal/platform/config"
)

func newTokenCommand() *cobra.Command {
	var (
		companyID string
		userID    string
		role      string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		Example: `  profitlens token --company 6f1c... --role Accountant
  curl -H "Authorization: Bearer $(profitlens token --company 6f1c...)" localhost:8080/api/v1/invoices`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.IsProduction() {
				return errors.New("token minting is disabled in production")
			}
			tok, err := mintToken(cfg.JWTSecret, companyID, userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company id the token is scoped to")
	cmd.Flags().StringVar(&userID, "user", "dev", "user id")
	cmd.Flags().StringVar(&role, "role", auth.RoleOwner, "role: Owner, Accountant or Viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func mintToken(secret, companyID, userID, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	if !auth.ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	return auth.GenerateToken(secret, auth.Claims{UserID: userID, CompanyID: companyID, Role: role}, ttl)
}
