package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"platehub/internal/catalog"
)

func catalogCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the plate catalog",
	}
	cmd.AddCommand(catalogStatsCommand(a), catalogListCommand(a), catalogSearchCommand(a))
	return cmd
}

func catalogStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Plate counts per region and the category list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, map[string]any{
					"plates":     store.Len(),
					"regions":    store.Regions(),
					"categories": store.Categories(),
				})
			}

			regions := store.Regions()
			fmt.Fprintf(out, "%d plates in %d regions\n", store.Len(), len(regions))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, r := range regions {
				fmt.Fprintf(tw, "%s\t%d\n", r.Region, r.Count)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if cats := store.Categories(); len(cats) > 0 {
				fmt.Fprintf(out, "categories: %s\n", strings.Join(cats, ", "))
			}
			return nil
		},
	}
}

func catalogListCommand(a *app) *cobra.Command {
	var q catalog.ListQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plates, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			items, total := store.List(q)
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, map[string]any{"total": total, "items": items})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REGION\tTITLE\tCATEGORY\tRARITY\tIMAGE")
			for _, p := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Region, p.Title, p.Category, p.Rarity, p.Image)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d of %d\n", len(items), total)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Region, "region", "", "region code")
	f.StringVar(&q.Category, "category", "", "category name")
	f.StringVar(&q.Q, "q", "", "title substring or fuzzy match")
	f.IntVar(&q.Limit, "limit", 20, "max rows")
	f.IntVar(&q.Offset, "offset", 0, "rows to skip")
	return cmd
}

func catalogSearchCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Fuzzy search plate titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			hits := store.Search(strings.Join(args, " "), limit)
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, hits)
			}
			if len(hits) == 0 {
				fmt.Fprintln(out, "no matches")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, h := range hits {
				fmt.Fprintf(tw, "%.2f\t%s\t%s\n", h.Score, h.Record.Region, h.Record.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "max results")
	return cmd
}
