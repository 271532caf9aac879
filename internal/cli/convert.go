package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexmods/modconvert/internal/fsutil"
	"github.com/cortexmods/modconvert/internal/ui"
)

// reportWidth is the word-wrap width of the rendered warning report.
const reportWidth = 100

func newConvertCmd() *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert every mod in the input folder",
		Long: `Convert walks the input folder, converts every *.rte mod folder it finds
into the output folder and prints a summary and the warning report.

Definition (.ini) and script (.lua) files are rewritten, bitmaps are
re-encoded as PNG and every other file is copied. Missing folders are
prompted for when running in a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, f)
		},
	}
	addConvertFlags(cmd, &f)
	return cmd
}

func runConvert(cmd *cobra.Command, f convertFlags) error {
	cfg := deps.Config.Get()
	s := resolveSettings(cmd, cfg.Settings, f)
	if err := completeSettings(&s, cfg.System, deps.Prompt); err != nil {
		return err
	}

	j := job{settings: s, logger: deps.Logger, progress: deps.Progress}
	res, err := j.run(cmd.Context())
	if err != nil {
		return err
	}
	finishBell(cmd.ErrOrStderr(), s.FinishBell)
	return report(cmd.OutOrStdout(), deps.Theme, s.ReportFile, res)
}

// finishBell rings the terminal bell when on.
func finishBell(w io.Writer, on bool) {
	if on {
		_, _ = io.WriteString(w, "\a")
	}
}

// report prints the summary card and the warning report, and writes the
// report file when one is configured.
func report(w io.Writer, theme *ui.Theme, reportFile string, res *outcome) error {
	lines, hasContent := res.log.Finalize()

	_, _ = fmt.Fprintln(w, theme.SummaryCard(summaryTitle(res), summaryStats(res)))

	if !hasContent {
		return nil
	}
	if reportFile != "" {
		text := strings.Join(lines, "\n") + "\n"
		if err := fsutil.WriteFileAtomic(reportFile, []byte(text)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		_, _ = fmt.Fprintln(w, theme.Warn(fmt.Sprintf("%d warnings written to %s", res.log.Count(), reportFile)))
		return nil
	}
	if res.log.Count() == 0 {
		return nil
	}
	rendered, err := theme.RenderMarkdown(ui.ReportMarkdown(lines), reportWidth)
	if err != nil {
		// The plain report is still useful.
		rendered = strings.Join(lines, "\n") + "\n"
	}
	_, _ = fmt.Fprint(w, rendered)
	return nil
}

func summaryTitle(res *outcome) string {
	n := len(res.summary.Mods)
	if n == 1 {
		return "Converted " + res.summary.Mods[0]
	}
	return fmt.Sprintf("Converted %d mods", n)
}

func summaryStats(res *outcome) []ui.Stat {
	sum := res.summary
	stats := []ui.Stat{
		{Label: "Definitions & scripts", Value: strconv.Itoa(sum.Converted)},
		{Label: "Images", Value: strconv.Itoa(sum.Images)},
		{Label: "Copied", Value: strconv.Itoa(sum.Copied)},
	}
	if sum.Skipped > 0 {
		stats = append(stats, ui.Stat{Label: "Skipped", Value: strconv.Itoa(sum.Skipped)})
	}
	if res.indexed > 0 {
		stats = append(stats, ui.Stat{Label: "Case corrections", Value: fmt.Sprintf("%d (%d names indexed)", sum.Corrections, res.indexed)})
	}
	stats = append(stats, ui.Stat{Label: "Warnings", Value: strconv.Itoa(res.log.Count())})
	if len(res.unzipped) > 0 {
		stats = append(stats, ui.Stat{Label: "Extracted", Value: baseNames(res.unzipped)})
	}
	if len(sum.Zips) > 0 {
		stats = append(stats, ui.Stat{Label: "Archives", Value: baseNames(sum.Zips)})
	}
	stats = append(stats, ui.Stat{Label: "Elapsed", Value: sum.Elapsed.Round(time.Millisecond).String()})
	return stats
}

func baseNames(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, ", ")
}
