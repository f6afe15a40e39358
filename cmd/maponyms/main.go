// Command maponyms finds georeferencing control points on a scanned map by
// reading its place names and matching them against a gazetteer.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"maponyms/internal/config"
	"maponyms/internal/logger"
	"maponyms/internal/version"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const appName = "maponyms"

var (
	titleStyle = color.New(color.Bold, color.FgHiWhite)
	okStyle    = color.New(color.FgHiGreen)
	warnStyle  = color.New(color.FgHiYellow)
	dimStyle   = color.New(color.FgHiBlack)
)

type globalFlags struct {
	configPath string
	logLevel   string
}

// loadConfig reads the config file and applies the log level.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger.Init(os.Stderr, level)
	slog.Debug("loaded config", "path", g.configPath)
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Georeference scanned maps from their place names",
		Long: color.New(color.FgHiMagenta).Sprintf(
			"Find control points on a map image by matching its toponyms against a gazetteer. %s",
			color.New(color.FgBlue).Sprintf("(%s)", version.Version),
		),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultPath(), "Config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(g), newResolveCmd(g), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s version: %s\n", appName, version.String())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		slog.Error("Error executing command", "error", err)
		os.Exit(1)
	}
}
