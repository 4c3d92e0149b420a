package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/report"
)

var (
	reportOut     string
	reportDataset string
)

var reportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Scan a log and write an AI-generated markdown security report",
	Long: `Scan a log with every detector, derive report statistics and critical findings,
and ask the configured language model for a markdown security report.

Example:
  cyberdetect report access.log --out report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the report to a file instead of stdout")
	reportCmd.Flags().StringVar(&reportDataset, "dataset-url", "", "source URL recorded in the report")
}

func runReport(cmd *cobra.Command, args []string) error {
	client, err := cfg.LLMClient()
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

	outcome, err := session.ScanAll(ctx)
	if err != nil {
		return err
	}
	for endpoint, ferr := range outcome.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s failed: %v\n", endpoint, ferr)
	}

	data := report.Prepare(report.Input{
		Results:     session.Results().Entries(),
		Summary:     session.Summary(),
		Dataset:     report.DatasetInfo{FileName: session.FileName, DatasetURL: reportDataset},
		AttackTypes: reg.AttackTypes(),
	})
	logger.Info("generating report", "threats", data.TotalThreats, "findings", len(data.CriticalFindings))

	rep, err := report.Generator{Client: client}.Generate(ctx, data)
	if err != nil {
		return err
	}
	if rep.Usage != nil {
		logger.Info("report generated", "total_tokens", rep.Usage.TotalTokens)
	}
	return withOutput(cmd, reportOut, func(w io.Writer) error {
		_, err := io.WriteString(w, strings.TrimSpace(rep.Markdown)+"\n")
		return err
	})
}
