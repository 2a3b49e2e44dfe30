package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/vpsmon/internal/config"
	"github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/rileyhilliard/vpsmon/internal/monitor"
	"github.com/rileyhilliard/vpsmon/internal/ui"
	"github.com/rileyhilliard/vpsmon/internal/util"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var pruneYes bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove unused Docker images and volumes on the host",
	Long: `Send the prune command to the host and return without waiting for it.

The default command is:
  docker image prune -f && docker volume prune -f

Set VPSMON_PRUNE_COMMAND to change it. The command runs detached on the
host, so it keeps going after vpsmon disconnects. Its output is not shown.

Examples:
  vpsmon prune
  vpsmon prune --yes`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().BoolVarP(&pruneYes, "yes", "y", false, "skip the confirmation prompt")
}

// stdinIsTerminal reports whether a confirmation prompt can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirmPrune asks the user before anything is deleted on the host.
var confirmPrune = func(host, command string) (bool, error) {
	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Prune Docker images and volumes on %s?", host)).
				Description(command).
				Affirmative("Prune").
				Negative("Cancel").
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return false, nil
	}
	return confirm, nil
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !cfg.PruneEnabled {
		return errors.New(errors.ErrConfig,
			"Prune is disabled",
			"Drop --no-prune or unset VPSMON_PRUNE_ENABLED=false")
	}

	out := cmd.OutOrStdout()
	if !pruneYes {
		if !stdinIsTerminal() {
			return errors.New(errors.ErrConfig,
				"Not prompting for confirmation without a terminal",
				"Pass --yes to prune non-interactively")
		}
		ok, err := confirmPrune(cfg.Address(), cfg.PruneCommand)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	return dispatchPrune(cmd.Context(), *cfg, cmd.ErrOrStderr())
}

// dispatchPrune connects and sends the prune command detached. Success means
// the command was started, not that it finished.
func dispatchPrune(ctx context.Context, cfg config.Config, errOut io.Writer) error {
	session := newSession(cfg)
	defer session.Close()

	phases := ui.NewPhaseDisplay(errOut)

	start := time.Now()
	phases.RenderProgress("Connecting to " + cfg.Address())
	if err := session.Connect(ctx); err != nil {
		phases.RenderFailed("Connection failed", time.Since(start))
		return err
	}
	phases.RenderSuccess("Connected to "+cfg.Address(), time.Since(start))

	start = time.Now()
	phases.RenderProgress("Sending prune")
	maint := monitor.NewMaintenance(session, util.Detached(cfg.PruneCommand))
	dispatched, err := maint.Trigger(ctx)
	if err != nil {
		phases.RenderFailed("Prune failed", time.Since(start))
		return err
	}
	if !dispatched {
		phases.RenderSkipped("Prune", "already running")
		return nil
	}
	phases.RenderSuccess("Prune sent", time.Since(start))
	return nil
}
