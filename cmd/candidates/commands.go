package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hejijunhao/candidates/internal/config"
	"github.com/hejijunhao/candidates/internal/connector"
	"github.com/hejijunhao/candidates/internal/output"
	"github.com/hejijunhao/candidates/internal/output/file"
	"github.com/hejijunhao/candidates/internal/output/multi"
	"github.com/hejijunhao/candidates/internal/output/stdout"
	"github.com/hejijunhao/candidates/internal/pipeline"
)

var runTypes = []string{"demo", "main"}

var runner = map[string]string{needsRunner: ""}

var runCmd = &cobra.Command{
	Use:       "run [demo|main]",
	Short:     "Run every stage against the data directory",
	Long:      `Extract candidates from the InterPro and UniRule dumps under <data>/<type>/input, filter them by hit counts and write the consistency report under <data>/<type>/output.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: runTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		sum, err := r.Run(cmd.Context(), layout(args))
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
	Annotations: runner,
}

var prepareCmd = &cobra.Command{
	Use:       "prepare [demo|main]",
	Short:     "Extract the preliminary candidate list from the rule and family dumps",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: runTypes,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		l := layout(args)
		st, err := r.Prepare(cmd.Context(), l)
		if err != nil {
			return err
		}
		bold := color.New(color.Bold).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %d entries, %d leaf families, %d used signatures, %d candidates\n",
			bold("Prepared:"), st.Entries, st.NoChild, st.Used, st.Candidates)
		fmt.Fprintf(os.Stderr, "  %s\n", l.Candidates())
		return nil
	},
	Annotations: runner,
}

var countCmd = &cobra.Command{
	Use:   "count <candidates.list> [hits.tsv]",
	Short: "Count reviewed and unreviewed entries per candidate and keep those above the thresholds",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		out, err := openStage(args)
		if err != nil {
			return err
		}
		counts, err := r.Count(cmd.Context(), args[0], out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %d candidates passed the hit filter\n", green("✓"), len(counts))
		return nil
	},
	Annotations: runner,
}

var collectCmd = &cobra.Command{
	Use:   "collect <hits.tsv> [report.tsv]",
	Short: "Fetch reviewed entries per candidate and write the consistency report",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newRunner()
		if err != nil {
			return err
		}
		out, err := openStage(args)
		if err != nil {
			return err
		}
		st, err := r.Collect(cmd.Context(), args[0], out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %d candidates, %d records, %d consistent annotations\n",
			green("✓"), st.Identifiers, st.Records, st.Lines)
		return nil
	},
	Annotations: runner,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and registered sources",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "candidates %s (sources: %v)\n", config.Version, connector.Providers())
	},
}

func init() {
	rootCmd.AddCommand(runCmd, prepareCmd, countCmd, collectCmd, versionCmd)
}

func layout(args []string) pipeline.Layout {
	runType := cfg.Data.RunType
	if len(args) > 0 {
		runType = args[0]
	}
	return pipeline.NewLayout(cfg.Data.Dir, runType, started)
}

// openStage checks the stage input before opening its output, so a bad input
// path leaves an existing output file untouched.
func openStage(args []string) (output.Output, error) {
	if err := pipeline.RequireInput(args[0]); err != nil {
		return nil, err
	}
	return openOutput(args[1:])
}

// openOutput writes to the optional path, to stdout when no path is given,
// and to both when --tee is set.
func openOutput(path []string) (output.Output, error) {
	if len(path) == 0 {
		return stdout.New(nil), nil
	}
	f, err := file.New(path[0])
	if err != nil {
		return nil, err
	}
	if tee {
		return multi.New(f, stdout.New(nil)), nil
	}
	return f, nil
}

func printSummary(sum pipeline.Summary) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	w := os.Stderr
	fmt.Fprintf(w, "\n%s\n", cyan("=== Candidate Rules ==="))
	fmt.Fprintf(w, "  Run:         %s\n", gray(sum.RunID))
	fmt.Fprintf(w, "  Entries:     %d (%d leaf families)\n", sum.Prepare.Entries, sum.Prepare.NoChild)
	fmt.Fprintf(w, "  Candidates:  %d\n", sum.Prepare.Candidates)
	fmt.Fprintf(w, "  Passed hits: %d\n", sum.Hits)
	fmt.Fprintf(w, "  Records:     %d\n", sum.Collect.Records)
	fmt.Fprintf(w, "  Annotations: %d\n", sum.Collect.Lines)
	fmt.Fprintf(w, "  Elapsed:     %s\n", sum.Elapsed.Round(time.Second))
	fmt.Fprintf(w, "%s %s\n\n", yellow("Report:"), sum.Layout.Report())
}
