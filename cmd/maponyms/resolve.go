package main

import (
	"fmt"
	"io"

	"maponyms/internal/gazetteer"

	"github.com/spf13/cobra"
)

type resolveFlags struct {
	offline bool
	dbPath  string
	limit   int
	lang    string
}

func newResolveCmd(g *globalFlags) *cobra.Command {
	f := &resolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve NAME",
		Short: "Look up a place name in the gazetteer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			gc := cfg.GazetteerConfig()
			if f.offline {
				gc.Mode = gazetteer.ModeOffline
			}
			if cmd.Flags().Changed("db") {
				gc.Mode = gazetteer.ModeOffline
				gc.DBPath = f.dbPath
			}
			lang := cfg.Gazetteer.Lang
			if cmd.Flags().Changed("lang") {
				lang = f.lang
			}

			r, err := gazetteer.Open(gc)
			if err != nil {
				return err
			}
			defer r.Close()

			found, err := r.Resolve(cmd.Context(), gazetteer.Query{Name: args[0], Limit: f.limit, Lang: lang})
			if err != nil {
				return err
			}
			printCandidates(cmd.OutOrStdout(), args[0], found)
			return nil
		},
	}

	cmd.Flags().BoolVar(&f.offline, "offline", false, "Use the local gazetteer database")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "Gazetteer database path (implies --offline)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Max results (online only; 0 for the service default)")
	cmd.Flags().StringVar(&f.lang, "lang", "", "Preferred result language")
	return cmd
}

func printCandidates(w io.Writer, name string, found []gazetteer.Candidate) {
	if len(found) == 0 {
		warnStyle.Fprintf(w, "no matches for %q\n", name)
		return
	}
	titleStyle.Fprintf(w, "%d matches for %q\n", len(found), name)
	for _, c := range found {
		fmt.Fprintf(w, "  %9.4f %8.4f  %s", c.Lon, c.Lat, c.Name)
		if c.Source != "" {
			fmt.Fprintf(w, " %s", dimStyle.Sprintf("[%s #%s]", c.Source, c.ID))
		}
		fmt.Fprintln(w)
	}
}
