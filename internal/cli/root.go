package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/vpsmon/internal/config"
	"github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/rileyhilliard/vpsmon/internal/logger"
	"github.com/rileyhilliard/vpsmon/internal/monitor"
	"github.com/rileyhilliard/vpsmon/internal/ui"
	"github.com/rileyhilliard/vpsmon/pkg/sshutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Global flags
var (
	cfgFile string
	envFile string
	logFile string
	noPrune bool
	noColor bool
)

// sessionOptions are appended to every session the CLI creates.
var sessionOptions []monitor.SessionOption

// logCloser closes the --log-file handle, if one was opened.
var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "vpsmon",
	Short: "Live resource dashboard for a VPS over SSH",
	Long: `vpsmon keeps one SSH connection open to a server and shows hostname,
memory, CPU and disk usage plus the running Docker containers, refreshed
every few seconds.

Connection details come from VPS_HOST, VPS_USER, SSH_KEY_PATH and VPS_PORT,
read from the environment or a .env file in the working directory.

Examples:
  vpsmon
  vpsmon --host 203.0.113.10 --user deploy --key ~/.ssh/id_ed25519
  vpsmon --interval 30s --show-errors
  vpsmon --env-file ~/servers/web.env`,
	Args:               cobra.NoArgs,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupTerminal,
	PersistentPostRunE: closeLogFile,
	RunE:               runDashboard,
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(snapshotCmd, pruneCmd, doctorCmd, versionCmd)
}

// addGlobalFlags registers the flags every command accepts.
func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file with VPS_* variables")
	flags.String("host", "", "host address or ~/.ssh/config alias (VPS_HOST)")
	flags.String("user", "", "SSH user (VPS_USER)")
	flags.String("key", "", "private key file (SSH_KEY_PATH)")
	flags.Int("port", 0, fmt.Sprintf("SSH port (VPS_PORT, default %d)", config.DefaultPort))
	flags.Duration("interval", config.DefaultInterval, "time between polls")
	flags.Duration("timeout", config.DefaultConnectTimeout, "connect timeout")
	flags.Bool("strict-host-key", false, "verify the host key against ~/.ssh/known_hosts")
	flags.Bool("show-errors", false, "show transient poll errors in the footer")
	flags.BoolVar(&noPrune, "no-prune", false, "disable the docker prune action")
	flags.StringVar(&logFile, "log-file", "", "write debug logs to this file")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits the process on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}

	if code, ok := errors.GetExitCode(err); ok {
		os.Exit(code)
	}

	if isUnknownCommandError(err) {
		msg := err.Error()
		if name := extractUnknownCommand(err); name != "" {
			msg = fmt.Sprintf("'%s' isn't a vpsmon command", name)
		}
		fmt.Fprintf(os.Stderr, "%s %s\n\n  Run 'vpsmon --help' to see the available commands.\n",
			ui.ErrorStyle().Render(ui.SymbolFail), msg)
		os.Exit(2)
	}

	if errors.IsCode(err, errors.ErrConfig) {
		fmt.Fprint(os.Stderr, err.Error())
		os.Exit(2)
	}

	fmt.Fprint(os.Stderr, err.Error())
	if !strings.HasSuffix(err.Error(), "\n") {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(1)
}

// setupTerminal configures colors, logging and SSH warnings before any
// command runs.
func setupTerminal(cmd *cobra.Command, _ []string) error {
	if noColor || termenv.EnvNoColor() || !term.IsTerminal(int(os.Stdout.Fd())) {
		ui.DisableColors()
	}

	sshutil.WarningHandler = ui.PrintWarning

	if logFile == "" {
		log.SetOutput(io.Discard)
		return nil
	}

	f, err := tea.LogToFile(logFile, "vpsmon")
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open log file "+logFile,
			"Check the directory exists and is writable")
	}
	logCloser = f
	return nil
}

func closeLogFile(*cobra.Command, []string) error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

// loadConfig resolves and validates configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfig loads configuration for cmd without validating it.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile:     cfgFile,
		EnvFile:        envFile,
		RequireEnvFile: cmd.Flags().Changed("env-file"),
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}

	if noPrune {
		cfg.PruneEnabled = false
	}
	return cfg, nil
}

func newSession(cfg config.Config) *monitor.Session {
	opts := append([]monitor.SessionOption{
		monitor.WithSessionLogger(logger.NewEnvLogger("[session]")),
	}, sessionOptions...)
	return monitor.NewSession(cfg, opts...)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The dashboard owns the terminal; warnings go to the log instead.
	sshutil.WarningHandler = func(message string) {
		log.Printf("[ssh] WARN: %s", message)
	}

	session := newSession(*cfg)
	defer session.Close()

	err = monitor.RunDashboard(cmd.Context(), *cfg, session, monitor.RunOptions{
		PollerOptions: []monitor.PollerOption{
			monitor.WithLogger(logger.NewEnvLogger("[poller]")),
		},
	})
	return dashboardError(err)
}

// dashboardError keeps the exit status of a connect failure without printing
// it again; the dashboard already showed it on the fatal screen.
func dashboardError(err error) error {
	if errors.IsCode(err, errors.ErrSSH) {
		return reportedError(err)
	}
	return err
}

var unknownCommandPattern = regexp.MustCompile(`unknown command "([^"]+)"`)

// isUnknownCommandError reports whether err came from cobra rejecting the
// command line rather than from running a command.
func isUnknownCommandError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand returns the rejected command name, or "".
func extractUnknownCommand(err error) string {
	if err == nil {
		return ""
	}
	m := unknownCommandPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return ""
	}
	return m[1]
}

// reportedError marks err as already printed so Execute only sets the exit
// code: 2 for configuration errors, 1 otherwise.
func reportedError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *errors.ExitError
	if stderrors.As(err, &exitErr) {
		return err
	}
	if errors.IsCode(err, errors.ErrConfig) {
		return errors.NewExitError(2)
	}
	return errors.NewExitError(1)
}
