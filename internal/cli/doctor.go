package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/vpsmon/internal/config"
	"github.com/rileyhilliard/vpsmon/internal/doctor"
	"github.com/rileyhilliard/vpsmon/internal/logger"
	"github.com/rileyhilliard/vpsmon/internal/monitor"
	"github.com/rileyhilliard/vpsmon/internal/ui"
	"github.com/rileyhilliard/vpsmon/pkg/sshutil"
	"github.com/spf13/cobra"
)

var (
	doctorJSON bool
	doctorFix  bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and connection problems",
	Long: `Check the configuration, the private key, the connection and the
tools the poll commands need on the host.

Examples:
  vpsmon doctor
  vpsmon doctor --fix
  vpsmon doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt automatic fixes where possible")
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, loadErr := resolveConfig(cmd)

	checks, results := runDoctorChecks(cmd.Context(), cfg, loadErr, doctorFix)

	out := cmd.OutOrStdout()
	var err error
	if doctorJSON {
		err = outputDoctorJSON(out, checks, results)
	} else {
		outputDoctorText(out, checks, results)
	}
	if err != nil {
		return err
	}

	if doctor.HasFailures(results) {
		return reportedError(fmt.Errorf("%s", doctor.Summary(results)))
	}
	return nil
}

// runDoctorChecks runs local checks, then the remote ones if the config is
// usable and the connection succeeds.
func runDoctorChecks(ctx context.Context, cfg *config.Config, loadErr error, fix bool) ([]doctor.Check, []doctor.CheckResult) {
	checks := []doctor.Check{&doctor.ConfigCheck{Config: cfg, LoadErr: loadErr}}
	results := doctor.RunAll(ctx, checks)
	if doctor.HasFailures(results) {
		return checks, results
	}

	session := newSession(*cfg)
	defer session.Close()

	settings := sshutil.ResolveSettings(session.Settings())
	knownHosts := cfg.KnownHosts
	if knownHosts == "" {
		knownHosts = config.ExpandTilde("~/.ssh/known_hosts")
	}

	local := doctor.NewSSHChecks(settings.KeyPath, cfg.StrictHostKey, knownHosts)
	localResults := doctor.RunAll(ctx, local)
	if fix {
		localResults = doctor.AttemptFixes(ctx, local, localResults)
	}
	checks = append(checks, local...)
	results = append(results, localResults...)

	connect := &doctor.ConnectCheck{Address: cfg.Address(), Remote: session}
	checks = append(checks, connect)
	results = append(results, connect.Run(ctx))
	if results[len(results)-1].Status == doctor.StatusFail {
		return checks, results
	}

	poller := monitor.NewPoller(session, nil, monitor.WithLogger(logger.NewEnvLogger("[doctor]")))
	remote := doctor.NewRemoteChecks(session, poller)
	checks = append(checks, remote...)
	results = append(results, doctor.RunAll(ctx, remote)...)

	return checks, results
}

func outputDoctorJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	grouped := make(map[string][]doctor.CheckResult)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], results[i])
	}

	output := DoctorOutput{Categories: []CategoryOutput{}}
	for _, cat := range doctor.CategoryOrder {
		if len(grouped[cat]) == 0 {
			continue
		}
		output.Categories = append(output.Categories, CategoryOutput{Name: cat, Results: grouped[cat]})
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Fixable:  doctor.FixableCount(results),
		AllClear: !doctor.HasIssues(results),
	}

	return WriteJSONSuccess(w, output)
}

func outputDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("vpsmon diagnostic report"))
	fmt.Fprintln(w)

	grouped := make(map[string][]int)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], i)
	}

	for _, category := range doctor.CategoryOrder {
		indices := grouped[category]
		if len(indices) == 0 {
			continue
		}
		fmt.Fprintln(w, headerStyle.Render(category))
		for _, idx := range indices {
			renderCheckResult(w, results[idx])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, ui.FormatDivider(ui.DividerWidth))
	fmt.Fprintln(w)

	if !doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), doctor.Summary(results))
	} else {
		symbol := ui.WarningStyle().Render(ui.SymbolWarning)
		if doctor.HasFailures(results) {
			symbol = ui.ErrorStyle().Render(ui.SymbolFail)
		}
		fmt.Fprintf(w, "%s %s\n", symbol, doctor.Summary(results))

		if doctor.FixableCount(results) > 0 && !doctorFix {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  Run with %s to attempt automatic fixes where possible.\n",
				ui.MutedStyle().Render("--fix"))
		}
	}
	fmt.Fprintln(w)
}

func renderCheckResult(w io.Writer, result doctor.CheckResult) {
	symbol, style := ui.SymbolComplete, ui.SuccessStyle()
	switch result.Status {
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarning, ui.WarningStyle()
	case doctor.StatusFail:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}
