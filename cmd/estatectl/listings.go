package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"estatehub/internal/catalog"
	"estatehub/internal/models"
	"estatehub/internal/query"

	"github.com/spf13/cobra"
)

func listingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listings",
		Aliases: []string{"listing"},
		Short:   "Inspect and moderate listings",
	}
	cmd.AddCommand(
		listingsListCmd(),
		listingsModerateCmd("approve", models.StatusApproved),
		listingsModerateCmd("reject", models.StatusRejected),
	)
	return cmd
}

func listingsListCmd() *cobra.Command {
	var raw query.RawCriteria

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List listings in every status, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := query.ParseCriteria(raw)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			store := catalog.New(rt.ListingRepository())
			all, err := store.LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			writeListings(cmd.OutOrStdout(), query.VisibleListings(all, query.Admin(), criteria))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&raw.Status, "status", "", "only listings in this status (pending, approved, rejected)")
	f.StringVar(&raw.ListingType, "type", "", "only sale or rent listings")
	f.StringVar(&raw.Agent, "agent", "", "only listings of this agent")
	f.StringVar(&raw.Location, "location", "", "location contains")
	f.StringVar(&raw.Price, "price", "", `price range such as "100000-250000" or "500000+"`)
	f.StringVar(&raw.Bedrooms, "bedrooms", "", `bedroom count, "4+" for four or more`)
	f.StringVar(&raw.Search, "search", "", "title or location contains")
	return cmd
}

func listingsModerateCmd(verb string, status models.ListingStatus) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " ID",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a pending listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			store := catalog.New(rt.ListingRepository())
			id := args[0]
			err = store.SetStatus(cmd.Context(), id, status)
			if err != nil && !models.IsCode(err, models.CodePartialFailure) {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Listing %s is now %s.\n", id, status)
			return nil
		},
	}
}

func writeListings(out io.Writer, listings []models.Listing) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTYPE\tPRICE\tBEDS\tAGENT\tTITLE")
	for _, l := range listings {
		price := fmt.Sprintf("%.0f", l.Price)
		if l.PricePeriod == models.PriceMonthly {
			price += "/mo"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			l.ID, l.Status, l.ListingType, price, l.Bedrooms, l.Agent, l.Title)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "%d listing(s)\n", len(listings))
}
