package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/custom"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/output"
)

var detectorsCmd = &cobra.Command{
	Use:     "detectors",
	Aliases: []string{"custom"},
	Short:   "Manage generated custom detectors",
}

var detectorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored custom detectors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defs := store.List()
		if outputFmt == string(output.FormatJSON) {
			return writeJSON(cmd.OutOrStdout(), defs)
		}
		if len(defs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No custom detectors.")
			return nil
		}
		types := make([]model.AttackType, len(defs))
		for i, d := range defs {
			types[i] = d.AttackType()
		}
		return output.RenderCatalog(cmd.OutOrStdout(), types)
	},
}

var detectorsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a custom detector's definition and source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		def, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if outputFmt == string(output.FormatJSON) {
			return writeJSON(cmd.OutOrStdout(), def)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s (%s)\nseverity: %s\ncreated:  %s\n\n%s\n\n%s\n",
			def.Name, def.ID, def.Severity, def.CreatedAt.Format("2006-01-02 15:04:05"), def.Description, def.Code)
		return nil
	},
}

var detectorsGenerateCmd = &cobra.Command{
	Use:   "generate NAME DESCRIPTION",
	Short: "Generate a detector with the configured language model and store it",
	Long: `Generate a detector with the configured language model. The generated
JavaScript is compiled and checked before it is stored.

Example:
  CYBERDETECT_LLM_PROVIDER=gemini CYBERDETECT_LLM_API_KEY=... \
    cyberdetect detectors generate "Admin panel probe" "Requests to /admin, /phpmyadmin and similar panels"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		if err := checkNameFree(reg, args[0]); err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		def, err := custom.Generator{Client: client}.Generate(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if err := store.Put(def); err != nil {
			return err
		}
		logger.Info("custom detector stored", "id", def.ID, "severity", def.Severity)
		fmt.Fprintln(cmd.OutOrStdout(), def.ID)
		return nil
	},
}

var detectorsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a stored custom detector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		removed, err := store.Delete(args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: %s", custom.ErrNotFound, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var detectorsRunOut string

var detectorsRunCmd = &cobra.Command{
	Use:   "run ID FILE",
	Short: "Run one custom detector over a log file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(outputFmt)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		def, err := store.Get(args[0])
		if err != nil {
			return err
		}

		// Only the requested detector is registered.
		reg := detector.NewRegistry()
		for _, endpoint := range reg.Endpoints() {
			reg.Unregister(endpoint)
		}
		if err := reg.Register(custom.NewDetector(def, custom.Executor{Timeout: cfg.Custom.Timeout}), def.AttackType()); err != nil {
			return err
		}

		session, err := loadSession(args[1], reg, nil)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		if _, err := session.Scan(ctx, def.ID); err != nil {
			return err
		}
		return withOutput(cmd, detectorsRunOut, func(w io.Writer) error {
			return writeResults(w, format, session)
		})
	},
}

func init() {
	rootCmd.AddCommand(detectorsCmd)
	detectorsCmd.AddCommand(detectorsListCmd, detectorsShowCmd, detectorsGenerateCmd, detectorsDeleteCmd, detectorsRunCmd)
	detectorsRunCmd.Flags().StringVar(&detectorsRunOut, "out", "", "write output to a file instead of stdout")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
