package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/metrics"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/output"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/server"
)

var watchServe bool

var watchCmd = &cobra.Command{
	Use:   "watch [patterns...]",
	Short: "Follow access logs and print threats as they happen",
	Long: `Watch one or more access logs (or glob patterns), run every detector on each
new line and stream alerts to the terminal in real time. Supports colorized
output and JSON mode. --serve also starts the HTTP API with the live stream.

Examples:
  cyberdetect watch /var/log/nginx/access.log
  cyberdetect watch "/var/log/**/access*.log"
  cyberdetect watch access.log --output json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchServe, "serve", false, "also serve the HTTP API")
}

func runWatch(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	reg, err := buildRegistry(store)
	if err != nil {
		return err
	}

	var renderer output.Renderer
	switch f, _ := output.ParseFormat(outputFmt); f {
	case output.FormatJSON:
		renderer = output.NewJSONRenderer(cmd.OutOrStdout())
	case output.FormatText:
		renderer = output.NewTextRenderer(cmd.OutOrStdout(), reg.Severity)
	default:
		return fmt.Errorf("watch supports text or json output, got %q", outputFmt)
	}

	ctx, cancel := signalContext()
	defer cancel()

	m := metrics.New()
	p, err := newPipeline(args, reg, m)
	if err != nil {
		return err
	}
	alerts := p.hub.Subscribe()

	fmt.Fprintf(os.Stderr, "cyberdetect watching %d file(s):\n", p.watcher.FileCount())
	for _, path := range p.watcher.Paths() {
		fmt.Fprintf(os.Stderr, "   • %s\n", path)
	}
	fmt.Fprintln(os.Stderr)

	if watchServe {
		srv, err := server.New(server.Options{
			Port:         cfg.Server.Port,
			PageLimit:    cfg.Server.PageLimit,
			Capacity:     cfg.Analyses.Capacity,
			TopAttackers: cfg.Scan.TopAttackers,
			Registry:     reg,
			Extractor:    extractor(),
			Metrics:      m,
			Logger:       logger,
			Hub:          p.hub,
			Live:         p.live,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("server stopped", "error", err)
				cancel()
			}
		}()
	}

	p.start(ctx)

	for alert := range alerts {
		if err := renderer.Render(alert); err != nil {
			logger.Warn("render error", "error", err)
		}
	}
	fmt.Fprintln(os.Stderr, "\ncyberdetect shutting down")
	return nil
}
