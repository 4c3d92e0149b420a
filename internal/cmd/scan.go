package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/analysis"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/custom"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/metrics"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/output"
)

var (
	scanTypes  []string
	scanCustom []string
	scanOut    string
)

var scanCmd = &cobra.Command{
	Use:   "scan FILE",
	Short: "Scan an access log for threats",
	Long: `Scan a plain, gzip, zstd or zip access log with the built-in detectors and any
stored custom detectors, then print a summary or export the flagged records.

Examples:
  cyberdetect scan access.log
  cyberdetect scan access.log.gz --type sql-injection,brute-force
  cyberdetect scan logs.zip -o csv --out threats.csv
  cyberdetect scan access.log --custom custom-admin-probe-1700000000123 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSliceVarP(&scanTypes, "type", "t", nil, "detector endpoints to run (default: all)")
	scanCmd.Flags().StringSliceVar(&scanCustom, "custom", nil, "custom detector ids to run")
	scanCmd.Flags().StringVar(&scanOut, "out", "", "write output to a file instead of stdout")
	scanCmd.Flags().Int("top", 20, "number of top attackers in the summary (0 for all)")
	cobra.CheckErr(viper.BindPFlag("scan.top_attackers", scanCmd.Flags().Lookup("top")))
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFmt)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	reg, err := buildRegistry(store)
	if err != nil {
		return err
	}

	session, err := loadSession(args[0], reg, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	endpoints := append(append([]string(nil), scanTypes...), scanCustom...)
	if len(endpoints) == 0 {
		outcome, err := session.ScanAll(ctx)
		if err != nil {
			return err
		}
		for endpoint, ferr := range outcome.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s failed: %v\n", endpoint, ferr)
		}
	} else {
		for _, endpoint := range endpoints {
			_, err := session.Scan(ctx, endpoint)
			switch {
			case errors.Is(err, custom.ErrExecution):
				// One broken custom detector does not stop the others.
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			case err != nil:
				return err
			}
		}
	}

	return withOutput(cmd, scanOut, func(w io.Writer) error {
		return writeResults(w, format, session)
	})
}

// loadSession reads, extracts and parses path.
func loadSession(path string, reg *detector.Registry, m *metrics.Metrics) (*analysis.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	session, err := analysis.Load(filepath.Base(path), data, analysis.Options{
		Extractor:    extractor(),
		Registry:     reg,
		Metrics:      m,
		Logger:       logger,
		TopAttackers: cfg.Scan.TopAttackers,
	})
	if err != nil {
		return nil, err
	}
	stats := session.Stats()
	logger.Info("log loaded", "file", session.FileName, "lines", stats.Lines, "parsed", stats.Parsed, "dropped", stats.Dropped)
	return session, nil
}

func writeResults(w io.Writer, format output.Format, session *analysis.Session) error {
	if format != output.FormatText {
		return output.Write(w, format, session.Results().Entries())
	}
	summary := session.Summary()
	if summary.TotalThreats == 0 {
		_, err := fmt.Fprintln(w, "No threats detected.")
		return err
	}
	return output.RenderSummary(w, summary)
}

// withOutput calls fn with stdout, or with the named file when path is set.
func withOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
