package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/config"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/planner"
	tpserver "github.com/praveenpatidar171/Task-Planner-extension/internal/server"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/session"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	root    string
	envFile string
	noRoot  bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "taskplanner",
		Short: "Stack-aware task planning MCP server",
		Long: `Task Planner detects your project's tech stack and turns development
tasks into step-by-step implementation plans.

Configuration is read from ~/.taskplanner/config.yaml, a .env file in the
working directory and the environment (GEMINI_API_KEY, TASKPLANNER_*).

Examples:
  taskplanner serve
  taskplanner plan "add password reset"
  taskplanner detect --json
  taskplanner recent --limit 5`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&g.root, "root", "", "Project directory (default: nearest project root above the working directory)")
	cmd.PersistentFlags().BoolVar(&g.noRoot, "no-project", false, "Run without a project; plans use an empty stack")
	cmd.PersistentFlags().StringVar(&g.envFile, "env-file", "", "Path to a .env file (default: ./.env)")

	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newPlanCmd(g))
	cmd.AddCommand(newDetectCmd(g))
	cmd.AddCommand(newRecentCmd(g))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// setup loads configuration, builds a stderr logger and resolves the
// project root. Logs never go to stdout, which belongs to the transport.
func (g *globalFlags) setup() (config.Config, *slog.Logger, string, error) {
	cfg, err := config.Load(config.Options{EnvFile: g.envFile})
	if err != nil {
		return cfg, nil, "", fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if g.noRoot {
		return cfg, logger, "", nil
	}
	root, err := stack.FindRoot(g.root)
	if err != nil {
		return cfg, logger, "", err
	}
	logger.Debug("project root resolved", "root", root)
	return cfg, logger, root, nil
}

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, root, err := g.setup()
			if err != nil {
				return err
			}
			s, cleanup, err := tpserver.New(cfg, root, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			logger.Info("serving", "version", tpserver.Version, "root", root, "model", cfg.Model)
			return server.ServeStdio(s)
		},
	}
}

func newPlanCmd(g *globalFlags) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "plan <task>",
		Short: "Generate a plan for one task and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, root, err := g.setup()
			if err != nil {
				return err
			}
			app, cleanup, err := tpserver.Build(cfg, root, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := app.Planner.Plan(cmd.Context(), planner.Request{
				Task:    strings.Join(args, " "),
				Refresh: refresh,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Plan)
			if res.Failed {
				return errors.New("plan generation failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-scan the project before planning")
	return cmd
}

func newDetectCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the detected tech stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, root, err := g.setup()
			if err != nil {
				return err
			}
			// A scan needs no journal or generator.
			detector := stack.NewDetector(session.New(), stack.WithLogger(logger))
			report, err := detector.Resolve(cmd.Context(), root, true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Fprint(out, report.Stack.Summary())
			for _, w := range report.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full scan report as JSON")
	return cmd
}

func newRecentCmd(g *globalFlags) *cobra.Command {
	var (
		limit   int
		project string
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List archived plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := g.setup()
			if err != nil {
				return err
			}
			jcfg := journal.DefaultConfig()
			jcfg.DataDir = cfg.DataDir
			js, err := journal.New(jcfg)
			if err != nil {
				return err
			}
			defer func() { _ = js.Close() }()

			plans, err := js.Recent(cmd.Context(), project, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				fmt.Fprintln(out, "No plans archived yet.")
				return nil
			}
			for _, p := range plans {
				fmt.Fprintf(out, "%s  %s  %s\n", p.CreatedAt, p.ID, p.Task)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Max plans to list")
	cmd.Flags().StringVar(&project, "project", "", "Only list plans for this project root")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskplanner v%s\n", tpserver.Version)
		},
	}
}
