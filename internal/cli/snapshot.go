package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rileyhilliard/vpsmon/internal/config"
	"github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/rileyhilliard/vpsmon/internal/monitor"
	"github.com/rileyhilliard/vpsmon/internal/ui"
	"github.com/rileyhilliard/vpsmon/internal/util"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats for snapshot.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// snapshotBarWidth is the width of the metric bars in text output.
const snapshotBarWidth = 24

var snapshotFormat string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Poll the host once and print the result",
	Long: `Connect, run one poll cycle and print the snapshot.

Exits non-zero if the connection or the poll fails, which makes it usable
from cron jobs and scripts.

Examples:
  vpsmon snapshot
  vpsmon snapshot --format json | jq '.data.containers'
  vpsmon snapshot --format yaml --host web-1`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "format", "f", FormatText, "output format: text, json or yaml")
}

// parseFormat validates an output format name.
func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown output format '%s'", s),
			"Use --format text, json or yaml")
	}
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	format, err := parseFormat(snapshotFormat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cfg, err := loadConfig(cmd)
	if err != nil {
		if format == FormatJSON {
			_ = WriteJSONFromError(out, err)
			return reportedError(err)
		}
		return err
	}

	return snapshotOnce(cmd.Context(), *cfg, format, out, cmd.ErrOrStderr())
}

// snapshotOnce connects, polls once and writes the result to out. Progress
// goes to errOut so stdout stays parseable.
func snapshotOnce(ctx context.Context, cfg config.Config, format string, out, errOut io.Writer) error {
	snap, err := collectSnapshot(ctx, cfg, errOut)
	if err != nil {
		if format == FormatJSON {
			_ = WriteJSONFromError(out, err)
			return reportedError(err)
		}
		return err
	}
	return writeSnapshot(out, snap, format)
}

func collectSnapshot(ctx context.Context, cfg config.Config, errOut io.Writer) (monitor.Snapshot, error) {
	session := newSession(cfg)
	defer session.Close()

	phases := ui.NewPhaseDisplay(errOut)

	start := time.Now()
	phases.RenderProgress("Connecting to " + cfg.Address())
	if err := session.Connect(ctx); err != nil {
		phases.RenderFailed("Connection failed", time.Since(start))
		return monitor.Snapshot{}, err
	}
	phases.RenderSuccess("Connected to "+cfg.Address(), time.Since(start))

	start = time.Now()
	phases.RenderProgress("Polling")
	poller := monitor.NewPoller(session, nil)
	res := poller.Poll(ctx)
	if res.Err != nil {
		phases.RenderFailed("Poll failed", time.Since(start))
		return monitor.Snapshot{}, res.Err
	}
	phases.RenderSuccess("Polled", time.Since(start))

	return res.Snapshot, nil
}

func writeSnapshot(w io.Writer, snap monitor.Snapshot, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSONSuccess(w, snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, renderSnapshotText(snap))
		return err
	}
}

// renderSnapshotText renders the snapshot the way the dashboard lays it
// out, using plain threshold bars instead of the interactive widgets.
func renderSnapshotText(snap monitor.Snapshot) string {
	var b strings.Builder

	updated := "--:--:--"
	if !snap.CollectedAt.IsZero() {
		updated = snap.CollectedAt.Format(monitor.UpdateTimeFormat)
	}
	b.WriteString(ui.BoldStyle().Render(snap.Hostname))
	b.WriteString("  ")
	b.WriteString(ui.MutedStyle().Render("Update " + updated))
	b.WriteString("\n\n")

	b.WriteString(ui.RenderMetricLine("CPU", monitor.ToFraction(snap.CPUUsed), snap.CPUUsed, snapshotBarWidth))
	b.WriteString("\n")
	b.WriteString(ui.RenderMetricLine("MEM", monitor.ToFraction(snap.MemoryUsed), snap.MemoryUsed, snapshotBarWidth))
	b.WriteString("\n")
	b.WriteString(ui.RenderMetricLine("DISK", monitor.ToFraction(snap.DiskUsed), snap.DiskUsed, snapshotBarWidth))
	b.WriteString("\n\n")

	if len(snap.Containers) == 0 {
		b.WriteString(ui.MutedStyle().Render("No active containers"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Containers  %s\n",
		ui.MutedStyle().Render(fmt.Sprintf("%d/%s up",
			snap.RunningCount(),
			util.CountNoun(len(snap.Containers), "container", "containers")))))

	rows := make([][]string, len(snap.Containers))
	nameWidth, statusWidth := len("NAME"), len("STATUS")
	for i, c := range snap.Containers {
		state := ui.SymbolComplete
		if !c.Running() {
			state = ui.SymbolFail
		}
		rows[i] = []string{state, c.Name, c.Status}
		nameWidth = max(nameWidth, len(c.Name))
		statusWidth = max(statusWidth, len(c.Status))
	}

	b.WriteString(ui.RenderSimpleTable([]ui.TableColumn{
		{Title: "", Width: 1},
		{Title: "NAME", Width: nameWidth},
		{Title: "STATUS", Width: statusWidth},
	}, rows))
	b.WriteString("\n")

	return b.String()
}
