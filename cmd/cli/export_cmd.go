package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"platehub/pkg/models"
)

func exportCommand(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export GAME",
		Short: "Write the plates of a game as CSV",
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

			if outPath == "" || outPath == "-" {
				return writeGameCSV(cmd.OutOrStdout(), g)
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := writeGameCSV(f, g); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d plates to %s\n", len(g.Plates), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func writeGameCSV(w io.Writer, g models.CollectionGame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"region", "title", "image", "category", "rarity", "collected_at"}); err != nil {
		return err
	}
	for _, p := range g.Plates {
		if err := cw.Write([]string{
			p.Region,
			p.Title,
			p.Image,
			p.Category,
			p.Rarity,
			p.CollectedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
