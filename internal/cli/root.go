package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/cortexmods/modconvert/pkg/version"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	project        string
	verbose        bool
	noColor        bool
	nonInteractive bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var f rootFlags
	root := &cobra.Command{
		Use:   "modconvert",
		Short: "Convert legacy Cortex Command mods for the community project",
		Long: `modconvert rewrites legacy Cortex Command mods so they load in the
Community Project: bitmap references become PNG, renamed engine properties
and Lua API calls are updated, file references are reconciled against the
real casing on disk, and risky constructs are reported as warnings.

Settings are read from .modconvert/config/sections/*.yaml, then from
MODCONVERT_* environment variables, then from command flags.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd, f)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("modconvert %s\n", version.GetVersion()))

	pf := root.PersistentFlags()
	pf.StringVar(&f.project, "project", ".", "project folder holding .modconvert/")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")
	pf.BoolVar(&f.noColor, "no-color", false, "disable colour and animations")
	pf.BoolVar(&f.nonInteractive, "non-interactive", false, "never prompt; fail when a folder is missing")

	root.AddCommand(
		newConvertCmd(),
		newPreviewCmd(),
		newRulesCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the configuration and configures logging and UI.
func loadConfig(cmd *cobra.Command, f rootFlags) error {
	if deps == nil {
		return errors.New("dependencies not initialized")
	}
	cfg, err := deps.Config.Load(f.project)
	if err != nil {
		return err
	}
	sys := cfg.System
	if f.noColor {
		sys.NoColor = true
	}
	if f.nonInteractive {
		sys.NonInteractive = true
	}
	deps.configure(sys, f.verbose, cmd.ErrOrStderr())
	deps.Logger.Debug("configuration loaded",
		"dir", deps.Config.ConfigDir(f.project),
		"sections", deps.Config.LoadedSections())
	return nil
}

// @MX:ANCHOR: Execute is the entry point of the modconvert binary.
// Execute initializes dependencies and runs the root command. Ctrl-C
// cancels the command context, which aborts a conversion between files.
func Execute() error {
	InitDependencies()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), deps.Theme.Style(deps.Theme.Colors.Error).Render("Error:"), err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No configuration needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "modconvert %s\n", version.GetFullVersion())
		},
	}
}
