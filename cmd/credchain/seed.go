package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"credchain/internal/platform/config"
	"credchain/internal/seed"
)

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo student, institution and accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := newLogger(cfg)
			if cfg.Database.URL == "" {
				logger.WarnContext(cmd.Context(), "no database configured; seeded data will not outlive this process, use serve --seed instead")
			}
			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			opts := seed.Options{BcryptCost: cfg.Auth.BcryptCost}
			if cfg.Chain.Backend == config.ChainBackendLedger {
				opts.Wallet = cfg.Chain.LedgerOwner
			}
			res, err := seed.Run(cmd.Context(), seed.Stores{
				Students:     st.students,
				Institutions: st.institutions,
				Accounts:     st.accounts,
			}, opts, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records (institution %s, student %s)\n",
				res.Created, res.InstitutionID, res.StudentID)
			return nil
		},
	}
}
