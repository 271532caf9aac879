package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cortexmods/modconvert/internal/caseindex"
	"github.com/cortexmods/modconvert/internal/convert"
	"github.com/cortexmods/modconvert/internal/defs"
	"github.com/cortexmods/modconvert/internal/diff"
	"github.com/cortexmods/modconvert/internal/driver"
	"github.com/cortexmods/modconvert/internal/rules"
	"github.com/cortexmods/modconvert/internal/ui"
)

type previewFlags struct {
	reference     string
	rules         string
	skipCaseCheck bool
	context       int
}

func newPreviewCmd() *cobra.Command {
	var f previewFlags
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show how one definition or script file would be converted",
		Long: `Preview converts a single .ini or .lua file in memory and prints a unified
diff against the original, followed by the warnings and case corrections the
file produced. Nothing is written.

When the file lives inside a *.rte folder, that mod is indexed for case
reconciliation together with the reference folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.reference, "reference", "r", "", "game data folder used to reconcile file name casing")
	fl.StringVar(&f.rules, "rules", "", "folder of extra rule tables")
	fl.BoolVar(&f.skipCaseCheck, "skip-case-check", false, "do not reconcile file name casing")
	fl.IntVarP(&f.context, "context", "U", diff.DefaultContext, "unchanged lines shown around each change")
	return cmd
}

func runPreview(cmd *cobra.Command, file string, f previewFlags) error {
	s := deps.Config.Get().Settings
	if cmd.Flags().Changed("reference") {
		s.ReferenceFolder = f.reference
	}
	if cmd.Flags().Changed("rules") {
		s.RulesFolder = f.rules
	}
	if cmd.Flags().Changed("skip-case-check") {
		s.SkipCaseCheck = f.skipCaseCheck
	}

	g, ok := convert.GrammarFor(file)
	if !ok {
		return fmt.Errorf("%w: %s", convert.ErrNotText, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	rs, err := rules.Load(rules.Options{Dir: s.RulesFolder, Logger: deps.Logger})
	if err != nil {
		return err
	}

	modDir, rel := locateMod(file)
	var ix caseindex.Lookuper
	if !s.SkipCaseCheck {
		built, err := previewIndex(cmd, s.ReferenceFolder, modDir, rs)
		if err != nil {
			return err
		}
		ix = built
	}

	p := convert.New(rs, ix, nil, convert.Options{Convert: true, CaseCheck: ix != nil, Logger: deps.Logger})
	before := convert.DecodeText(data)
	res := p.ConvertText(before, rel, g)

	printPreview(cmd.OutOrStdout(), deps.Theme, rel, before, res, f.context)
	return nil
}

func previewIndex(cmd *cobra.Command, reference, modDir string, rs *rules.RuleSet) (*caseindex.Index, error) {
	var roots []caseindex.Root
	for _, dir := range []string{reference, modDir} {
		if dir == "" {
			continue
		}
		r, err := caseindex.DirRoot(dir)
		if err != nil {
			return nil, err
		}
		roots = append(roots, r)
	}
	return caseindex.Build(cmd.Context(), roots, caseindex.BuildOptions{
		RenameExt: map[string]string{defs.ExtBMP: defs.ExtPNG},
		Protected: rs.IsProtected,
		Ignore:    deps.Config.Get().Settings.Ignore,
		Logger:    deps.Logger,
	})
}

// locateMod finds the *.rte folder enclosing file. rel is the file's path
// as warnings show it: relative to the mod's parent, or the bare file name
// outside any mod.
func locateMod(file string) (modDir, rel string) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", filepath.Base(file)
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if driver.IsModFolder(filepath.Base(dir)) {
			r, err := filepath.Rel(filepath.Dir(dir), abs)
			if err != nil {
				break
			}
			return dir, filepath.ToSlash(r)
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return "", filepath.Base(abs)
}

func printPreview(w io.Writer, theme *ui.Theme, rel, before string, res convert.Result, contextLines int) {
	out := diff.Unified("a/"+rel, "b/"+rel, before, res.Text, contextLines)
	if out == "" {
		_, _ = fmt.Fprintln(w, theme.Style(theme.Colors.Muted).Render("No changes."))
	} else {
		_, _ = fmt.Fprint(w, colorDiff(theme, out))
	}

	if len(res.Corrections) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", theme.Style(theme.Colors.Primary).Render("Case corrections"))
		for _, c := range res.Corrections {
			_, _ = fmt.Fprintf(w, "  line %d: %s -> %s\n", c.Line, c.Bad, c.Corrected)
		}
	}
	if len(res.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", theme.Style(theme.Colors.Warning).Render("Warnings"))
		for _, msg := range res.Warnings {
			_, _ = fmt.Fprintln(w, "  "+theme.Warn(msg))
		}
	}
}

// colorDiff styles a unified diff line by line.
func colorDiff(theme *ui.Theme, text string) string {
	var b strings.Builder
	for _, line := range diff.Split(text) {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			line = theme.Style(theme.Colors.Muted).Bold(!theme.NoColor).Render(line)
		case strings.HasPrefix(line, "@@"):
			line = theme.Style(theme.Colors.Primary).Render(line)
		case strings.HasPrefix(line, "+"):
			line = theme.Style(theme.Colors.Success).Render(line)
		case strings.HasPrefix(line, "-"):
			line = theme.Style(theme.Colors.Error).Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
