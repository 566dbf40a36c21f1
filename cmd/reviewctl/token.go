package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"housingreview/internal/domain"
	"housingreview/internal/service"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		role := domain.Role(tokenRole)
		if !role.Valid() {
			return eris.Errorf("unknown role %q (admin, officer, viewer)", tokenRole)
		}
		token, err := service.NewTokenService(&cfg.JWT).Issue(tokenSubject, role, tokenTTL)
		if err != nil {
			return eris.Wrap(err, "issue token")
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject, usually the officer ID (required)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleOfficer), "role: admin, officer or viewer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default: jwt.token_expiry)")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}
