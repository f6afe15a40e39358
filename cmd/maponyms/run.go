package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"maponyms/internal/config"
	"maponyms/internal/gazetteer"
	"maponyms/internal/imageio"
	"maponyms/internal/matchset"
	"maponyms/internal/ocr"
	"maponyms/internal/pipeline"
	"maponyms/internal/segment"
	"maponyms/internal/text"
	"maponyms/internal/toponym"
	"maponyms/pkg/geometry"

	"github.com/spf13/cobra"
)

type runFlags struct {
	colors         []string
	offline        bool
	dbPath         string
	mustHaveAnchor bool
	outDir         string
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run IMAGE",
		Short: "Detect toponyms on a map image and match them to world coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runImage(cmd, cfg, args[0], f.outDir)
		},
	}

	cmd.Flags().StringArrayVarP(&f.colors, "color", "c", nil, "Target text color as r,g,b or #rrggbb (repeatable)")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Use the local gazetteer database")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "Gazetteer database path (implies --offline)")
	cmd.Flags().BoolVar(&f.mustHaveAnchor, "must-have-anchor", false, "Skip toponyms without a map symbol anchor")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "Output directory for the GeoJSON files")
	return cmd
}

// apply overrides config values with explicitly set flags.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if len(f.colors) > 0 {
		cfg.OCR.Colors = f.colors
	}
	if f.offline {
		cfg.Gazetteer.Mode = gazetteer.ModeOffline
	}
	if cmd.Flags().Changed("db") {
		cfg.Gazetteer.Mode = gazetteer.ModeOffline
		cfg.Gazetteer.DBPath = f.dbPath
	}
	if f.mustHaveAnchor {
		cfg.Toponyms.MustHaveAnchor = true
	}
}

func runImage(cmd *cobra.Command, cfg *config.Config, path, outDir string) error {
	img, err := imageio.Load(path)
	if err != nil {
		return err
	}
	colors, err := cfg.TextColors()
	if err != nil {
		return err
	}

	engine, err := ocr.NewEngine(cfg.OCROptions())
	if err != nil {
		return err
	}
	defer engine.Close()

	resolver, err := gazetteer.Open(cfg.GazetteerConfig())
	if err != nil {
		return err
	}
	defer resolver.Close()

	searcher, err := matchset.NewSearcher(cfg.MatchConfig())
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Segmenter:    segment.DefaultContourSegmenter(),
		Detector:     engine,
		Consolidator: text.NewConsolidator(text.DefaultLineGrouper()),
		Selector:     toponym.NewSelector(cfg.RuleFilter(), cfg.AnchorDetector(), cfg.Toponyms.MustHaveAnchor),
		Resolver:     resolver,
		Searcher:     searcher,
		Colors:       colors,
		Resolve:      cfg.ResolveOptions(),
	}

	slog.Info("processing map", "image", path, "gazetteer", cfg.Gazetteer.Mode)
	res, runErr := p.Run(cmd.Context(), img)
	if res == nil {
		return runErr
	}

	written, err := res.WriteCollections(outDir)
	if err != nil {
		return err
	}
	b := img.Bounds()
	center := geometry.Point2D{X: float64(b.Min.X+b.Max.X) / 2, Y: float64(b.Min.Y+b.Max.Y) / 2}
	printSummary(cmd.OutOrStdout(), res, center, written)

	if errors.Is(runErr, matchset.ErrNoMatches) {
		warnStyle.Fprintln(cmd.ErrOrStderr(), "no consistent set of control points found")
	}
	return runErr
}

func printSummary(w io.Writer, res *pipeline.Result, center geometry.Point2D, written []string) {
	titleStyle.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  texts:     %d\n", len(res.Texts))
	fmt.Fprintf(w, "  toponyms:  %d\n", len(res.Toponyms))
	fmt.Fprintf(w, "  tiepoints: %s\n", okStyle.Sprint(len(res.TiePoints)))
	if res.Match != nil {
		fmt.Fprintf(w, "  residual:  rms %.2f px, max %.2f px (%s)\n", res.Match.RMS, res.Match.MaxResidual, res.Match.Family)
		fmt.Fprintf(w, "  rotation:  %.2f deg\n", res.Match.Transform.Rotation()*180/math.Pi)
		if lon, lat, ok := res.Match.Locate(center); ok {
			fmt.Fprintf(w, "  center:    (%.4f, %.4f)\n", lon, lat)
		}
	}

	if len(res.TiePoints) > 0 {
		titleStyle.Fprintln(w, "\nTie points")
		for _, tp := range res.TiePoints {
			fmt.Fprintf(w, "  %-20s (%7.1f, %7.1f) -> (%9.4f, %8.4f) %s\n",
				tp.Name, tp.Pixel.X, tp.Pixel.Y, tp.Lon, tp.Lat, dimStyle.Sprint(tp.MatchName))
		}
	}

	titleStyle.Fprintln(w, "\nWrote")
	for _, p := range written {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
