package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/metrics"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/server"
)

var serveWatch []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis HTTP API",
	Long: `Serve the HTTP API for uploading logs, running detectors and exporting results.
With --watch the server also follows log files and streams live alerts on /ws.

Examples:
  cyberdetect serve
  cyberdetect serve --port 8080 --watch "/var/log/nginx/**/access*.log"`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 6969, "HTTP port")
	serveCmd.Flags().StringSliceVarP(&serveWatch, "watch", "w", nil, "log glob patterns to follow live")
	cobra.CheckErr(viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port")))
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	reg, err := buildRegistry(store)
	if err != nil {
		return err
	}
	return serveWith(cmd, reg, serveWatch)
}

// serveWith runs the API server, with the live pipeline when patterns are given.
func serveWith(cmd *cobra.Command, reg *detector.Registry, patterns []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m := metrics.New()
	opts := server.Options{
		Port:         cfg.Server.Port,
		PageLimit:    cfg.Server.PageLimit,
		Capacity:     cfg.Analyses.Capacity,
		TopAttackers: cfg.Scan.TopAttackers,
		Registry:     reg,
		Extractor:    extractor(),
		Metrics:      m,
		Logger:       logger,
	}

	if len(patterns) > 0 {
		p, err := newPipeline(patterns, reg, m)
		if err != nil {
			return err
		}
		opts.Hub, opts.Live = p.hub, p.live
		p.start(ctx)
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %d file(s)\n", p.watcher.FileCount())
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "cyberdetect listening on http://localhost:%d\n", cfg.Server.Port)
	return srv.Run(ctx)
}
