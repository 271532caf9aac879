package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cortexmods/modconvert/internal/rules"
	"github.com/cortexmods/modconvert/internal/ui"
)

type rulesFlags struct {
	rules string
	all   bool
}

func newRulesCmd() *cobra.Command {
	var f rulesFlags
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate and list the conversion rules",
		Long: `Rules loads the built-in rule tables and the tables of the rules folder,
reports any error with the file and line it came from, and prints how many
rules each table holds. With --all every rule is listed in execution order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := deps.Config.Get().Settings.RulesFolder
			if cmd.Flags().Changed("rules") {
				dir = f.rules
			}
			rs, err := rules.Load(rules.Options{Dir: dir, Logger: deps.Logger})
			if err != nil {
				return err
			}
			printRules(cmd.OutOrStdout(), deps.Theme, rs, f.all)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.rules, "rules", "", "folder of extra rule tables")
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "list every rule")
	return cmd
}

// tableOrder is the order tables run in.
var tableOrder = []string{rules.TableRename, rules.TableConversion, rules.TableRegex, rules.TableAudio, "warnings"}

func printRules(w io.Writer, theme *ui.Theme, rs *rules.RuleSet, all bool) {
	counts := rs.Count()
	t := newTable(theme, "Table", "Rules")
	total := 0
	for _, name := range tableOrder {
		t.Row(name, strconv.Itoa(counts[name]))
		total += counts[name]
	}
	_, _ = fmt.Fprintln(w, t.Render())
	_, _ = fmt.Fprintf(w, "%d rules; protected: %s\n", total, strings.Join(rs.Protected(), ", "))

	if !all {
		return
	}

	rt := newTable(theme, "#", "Stage", "Table", "Pattern", "Replacement")
	for i, r := range rs.Rules() {
		rt.Row(strconv.Itoa(i+1), r.Stage.String(), r.Table, quote(r.Pattern), quote(r.Replacement))
	}
	_, _ = fmt.Fprintln(w, rt.Render())

	if ws := rs.Warnings(); len(ws) > 0 {
		wt := newTable(theme, "Warning pattern", "Suggestion")
		for _, wr := range ws {
			wt.Row(quote(wr.Pattern), wr.Suggestion)
		}
		_, _ = fmt.Fprintln(w, wt.Render())
	}
	if re, hint := rs.Playsound(); re != nil {
		_, _ = fmt.Fprintf(w, "playsound: %s -> %s\n", re, hint)
	}
}

func newTable(theme *ui.Theme, headers ...string) *table.Table {
	header := theme.Style(theme.Colors.Primary).Bold(!theme.NoColor).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.Style(theme.Colors.Border)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

// quote shows whitespace and control characters in patterns.
func quote(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}
