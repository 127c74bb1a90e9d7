package main

import (
	"fmt"

	"estatehub/internal/seed"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var opts seed.Options
	var clean bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo agents, listings and inquiries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Listings < 0 || opts.Agents < 0 || opts.Inquiries < 0 {
				return fmt.Errorf("counts must not be negative")
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			s := seed.NewSeeder(rt.DB, rt.ListingRepository(), opts.Seed)
			if clean {
				if err := s.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear demo data: %w", err)
				}
			}

			res, err := s.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %d agents, %d listings, %d inquiries.\n",
				len(res.Agents), len(res.Listings), len(res.Inquiries))
			fmt.Fprintf(out, "All demo accounts use the password %q.\n", seed.DemoPassword)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Listings, "listings", 25, "number of listings to create")
	cmd.Flags().IntVar(&opts.Agents, "agents", 3, "number of agent accounts to create")
	cmd.Flags().IntVar(&opts.Inquiries, "inquiries", 10, "number of inquiries to create")
	cmd.Flags().IntVar(&opts.MaxDays, "max-days", 90, "spread listing dates over this many past days")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed for reproducible data (0 picks one)")
	cmd.Flags().BoolVar(&clean, "clean", false, "delete existing listings and inquiries first")
	return cmd
}
