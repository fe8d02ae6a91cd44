package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"platehub/internal/collection"
	"platehub/pkg/models"
)

func gameCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Create and play spotting games",
	}
	cmd.AddCommand(
		gameCreateCommand(a),
		gameListCommand(a),
		gameShowCommand(a),
		gameDeleteCommand(a),
		gameCollectCommand(a),
		gameRemoveCommand(a),
		gameStatsCommand(a),
	)
	return cmd
}

func gameCreateCommand(a *app) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "create [NAME]",
		Short: "Start a new game",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.collection(cmd.Context())
			if err != nil {
				return err
			}
			var gm models.GameMode
			if mode != "" {
				if gm = models.ParseGameMode(mode); gm == "" {
					return fmt.Errorf("%w: %s", collection.ErrInvalidMode, mode)
				}
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			g, err := t.CreateGame(cmd.Context(), gm, name)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), g)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", gameLabel(g), g.Mode, g.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "one_per_region or unlimited (default from preferences)")
	return cmd
}

func gameListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.collection(cmd.Context())
			if err != nil {
				return err
			}
			games := t.Games()
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, games)
			}
			if len(games) == 0 {
				fmt.Fprintln(out, "no games yet")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMODE\tPLATES\tLAST ACTIVE")
			for _, g := range games {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", g.ID, g.Name, g.Mode, len(g.Plates), g.LastActiveAt.Local().Format(time.DateTime))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d of %d games\n", len(games), t.Config().MaxGames)
			return nil
		},
	}
}

func gameShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show GAME",
		Short: "Show the plates of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.collection(cmd.Context())
			if err != nil {
				return err
			}
			g, err := a.resolveGame(t, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, g)
			}
			fmt.Fprintf(out, "%s (%s), %d plates\n", gameLabel(g), g.Mode, len(g.Plates))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, p := range g.Plates {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Region, p.Title, p.Rarity, p.CollectedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func gameDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete GAME",
		Short: "Delete a game and its plates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.collection(cmd.Context())
			if err != nil {
				return err
			}
			g, err := a.resolveGame(t, args[0])
			if err != nil {
				return err
			}
			if err := t.DeleteGame(cmd.Context(), g.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", gameLabel(g))
			return nil
		},
	}
}

func gameCollectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collect GAME REGION TITLE",
		Short: "Log a spotted plate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			t, err := a.collection(cmd.Context())
			if err != nil {
				return err
			}
			g, err := a.resolveGame(t, args[0])
			if err != nil {
				return err
			}
			rec, ok := store.Lookup(args[1], args[2])
			if !ok {
				return fmt.Errorf("no plate %q in region %s", args[2], models.NormalizeRegion(args[1]))
			}

			res, err := t.Collect(cmd.Context(), g.ID, rec)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, res)
			}
			switch {
			case res.Outcome == collection.AlreadyPresent:
				fmt.Fprintf(out, "%s %s is already in %s\n", res.Record.Region, res.Record.Title, gameLabel(g))
			case res.Replaced != nil:
				fmt.Fprintf(out, "collected %s %s (replaced %s)\n", res.Record.Region, res.Record.Title, res.Replaced.Title)
			default:
				fmt.Fprintf(out, "collected %s %s\n", res.Record.Region, res.Record.Title)
			}
			return nil
		},
	}
}

func gameRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove GAME REGION TITLE",
		Short: "Remove a plate from a game",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.collection(cmd.Context())
			if err != nil {
				return err
			}
			g, err := a.resolveGame(t, args[0])
			if err != nil {
				return err
			}
			res, err := t.RemovePlate(cmd.Context(), g.ID, args[1], args[2])
			if err != nil {
				return err
			}
			if res.Outcome == collection.NotFound {
				return fmt.Errorf("%s %s is not in %s", models.NormalizeRegion(args[1]), args[2], gameLabel(g))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s\n", res.Record.Region, res.Record.Title)
			return nil
		},
	}
}

func gameStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats GAME",
		Short: "Show progress of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.collection(cmd.Context())
			if err != nil {
				return err
			}
			g, err := a.resolveGame(t, args[0])
			if err != nil {
				return err
			}
			s, err := t.Stats(g.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, s)
			}
			fmt.Fprintf(out, "%s: %d plates, %d/%d regions, score %d", gameLabel(g), s.TotalCount, s.DistinctRegions, s.RegionGoal, s.Score)
			if s.Complete {
				fmt.Fprint(out, ", complete")
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
