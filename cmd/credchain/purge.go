package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"credchain/internal/auth/jwttoken"
	authservice "credchain/internal/auth/service"
	vtservice "credchain/internal/verifytoken/service"
)

func purgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired refresh tokens and verification tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := configFrom(cmd)
			logger := newLogger(cfg)
			st, err := openStores(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			auth, err := authservice.New(st.accounts, st.refresh, jwttoken.NewJWTService(jwttoken.Config{
				AccessSecret:  cfg.Auth.AccessSecret,
				RefreshSecret: cfg.Auth.RefreshSecret,
				Issuer:        cfg.Auth.Issuer,
				AccessTTL:     cfg.Auth.AccessTTL,
				RefreshTTL:    cfg.Auth.RefreshTTL,
			}), authservice.WithLogger(logger))
			if err != nil {
				return err
			}
			refreshed, err := auth.PurgeExpired(ctx)
			if err != nil {
				return err
			}

			vt, err := vtservice.New(st.tokens, st.certificates, vtservice.WithLogger(logger))
			if err != nil {
				return err
			}
			verification, err := vt.PurgeExpired(ctx, cfg.Verification.Retention)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "purged %d refresh tokens and %d verification tokens\n", refreshed, verification)
			return nil
		},
	}
}
