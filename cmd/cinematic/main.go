package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"styleai/internal/cinematic"
	"styleai/internal/domain"
	"styleai/internal/enhance"
	"styleai/internal/infra"
)

// CLI flags
var (
	outputFlag      string
	modeFlag        string
	instructionFlag string
	paramsFlag      string
	verboseFlag     bool
	maxPixelsFlag   int
)

var rootCmd = &cobra.Command{
	Use:   "cinematic",
	Short: "Run the cinematic enhancement pipeline on local images",
	Long: `cinematic applies the same deterministic pipeline the API uses to a file
on disk. No database or network access is needed.

Examples:
  cinematic enhance photo.jpg
  cinematic enhance photo.jpg -o out.jpg --instruction "warmer mood, more drama"
  cinematic enhance photo.png --mode comprehensive --params tuned.yaml
  cinematic params > defaults.yaml`,
	SilenceUsage: true,
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance <input>",
	Short: "Enhance one image and write the result next to it",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnhance,
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the effective pipeline parameters as YAML",
	Args:  cobra.NoArgs,
	RunE:  runParams,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&paramsFlag, "params", "", "YAML file overriding pipeline parameters")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log stage transitions")

	enhanceCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (default <input>_cinematic.<ext>)")
	enhanceCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "comprehensive or prompt_guided (default depends on --instruction)")
	enhanceCmd.Flags().StringVarP(&instructionFlag, "instruction", "i", "", "Free-text instruction selecting stages")
	enhanceCmd.Flags().IntVar(&maxPixelsFlag, "max-pixels", enhance.DefaultMaxPixels, "Reject inputs larger than this many pixels (negative disables)")

	rootCmd.AddCommand(enhanceCmd, paramsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verboseFlag {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func runEnhance(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	var mode cinematic.Mode
	if strings.TrimSpace(modeFlag) != "" {
		parsed, err := cinematic.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		mode = parsed
	}

	params, err := infra.LoadPipelineParams(paramsFlag)
	if err != nil {
		return err
	}

	input := args[0]
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	service := enhance.NewService(enhance.Options{
		Pipeline:    cinematic.New(params, cinematic.WithLogger(logger)),
		Concurrency: 1,
		MaxPixels:   maxPixelsFlag,
		Logger:      logger,
	})
	out, err := service.Process(context.Background(), enhance.Request{
		Image:       data,
		Style:       domain.StyleCinematic,
		Mode:        mode,
		Instruction: instructionFlag,
	})
	if err != nil {
		return err
	}

	dest := outputFlag
	if dest == "" {
		stem := strings.TrimSuffix(input, filepath.Ext(input))
		dest = stem + "_cinematic." + out.Ext
	}
	if err := os.WriteFile(dest, out.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s -> %s (%dx%d, %s)\n", input, dest, out.Width, out.Height, out.Mode)
	for _, st := range out.Stages {
		line := fmt.Sprintf("  %-14s %-8s %6s", st.Stage, st.Status, st.Duration.Round(time.Millisecond))
		if st.Err != nil {
			line += "  " + st.Err.Error()
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "took %s\n", out.Took.Round(time.Millisecond))
	return nil
}

func runParams(cmd *cobra.Command, _ []string) error {
	params, err := infra.LoadPipelineParams(paramsFlag)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(params); err != nil {
		return err
	}
	return enc.Close()
}
