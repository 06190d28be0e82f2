// Command kpi-report computes dashboard KPIs from export files without
// starting the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/lorrc/dispatch-analytics/internal/adapters/secondary/memory"
	"github.com/lorrc/dispatch-analytics/internal/adapters/secondary/workbook"
	"github.com/lorrc/dispatch-analytics/internal/core/analytics"
	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/lorrc/dispatch-analytics/internal/core/services"
	"github.com/lorrc/dispatch-analytics/internal/infrastructure/logging"
)

// CLI is the command line of kpi-report.
type CLI struct {
	Cases    string `help:"Case log export (.csv, .txt, .xlsx)." type:"existingfile" required:""`
	Ops      string `help:"Daily operations summary export." type:"existingfile" optional:""`
	View     string `help:"Print the cases shown by a drill-down view instead of the KPIs." optional:""`
	Format   string `help:"Output format." enum:"json,text" default:"json"`
	LogLevel string `help:"Log level for diagnostics on stderr." enum:"debug,info,warn,error" default:"warn"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("kpi-report"),
		kong.Description("Compute ambulance dispatch KPIs from case log and operations exports."),
		kong.UsageOnError(),
	)

	logCfg := logging.DefaultConfig()
	logCfg.Level = cli.LogLevel
	logCfg.Format = "text"
	logCfg.Output = os.Stderr
	logCfg.ServiceName = "kpi-report"
	logCfg.Environment = "cli"
	logger := logging.NewLogger(logCfg)
	ctx.FatalIfErrorf(cli.Run(context.Background(), os.Stdout, logger))
}

// Run loads the files into a fresh in-memory dashboard and writes the report.
func (c *CLI) Run(ctx context.Context, out io.Writer, logger *slog.Logger) error {
	svc := services.NewDashboardService(memory.NewDatasetStore(), workbook.NewDecoder(), nil, nil, logger)

	if err := load(ctx, svc, domain.KindCases, c.Cases); err != nil {
		return err
	}
	if c.Ops != "" {
		if err := load(ctx, svc, domain.KindOperations, c.Ops); err != nil {
			return err
		}
	}

	if c.View != "" {
		list, err := svc.ListCases(ctx, ports.ListCasesParams{View: c.View})
		if err != nil {
			return fmt.Errorf("%w (views: %v)", err, analytics.Views())
		}
		if c.Format == "text" {
			return writeCasesText(out, list)
		}
		return writeJSON(out, list)
	}

	state, err := svc.State(ctx)
	if err != nil {
		return err
	}
	if c.Format == "text" {
		return writeMetricsText(out, state.Metrics)
	}
	return writeJSON(out, state)
}

func load(ctx context.Context, svc ports.DashboardService, kind domain.DatasetKind, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := svc.Ingest(ctx, ports.UploadParams{Kind: kind, FileName: filepath.Base(path), Content: content}); err != nil {
		return fmt.Errorf("%s %s: %w", kind, path, err)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMetricsText(out io.Writer, m domain.MetricsSnapshot) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	rows := []struct {
		label string
		value any
	}{
		{"Total cases", m.TotalCases},
		{"Call response rate", fmt.Sprintf("%.1f%%", m.ResponseRate)},
		{"Operational ambulances", m.OperationalAmbulances},
		{"Avg agent wait", analytics.FormatDuration(float64(m.AvgWaitTime))},
		{"Avg call duration", analytics.FormatDuration(float64(m.AvgCallDuration))},
		{"Days covered", m.UniqueDays},
		{"Successful per ambulance per day", m.SuccessPerAmbPerDay},
		{"Avg response time (min)", m.AvgResponseTime},
		{"Avg cycle time (min)", m.AvgCycleTime},
		{"Refused (ambulance unavailable)", m.RefusedUnavailable},
		{"Unsuccessful per ambulance per day", m.UnsuccessfulPerAmbPerDay},
		{"CEmONC acceptance", fmt.Sprintf("%.1f%%", m.CEmONCAcceptance)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%v\n", r.label, r.value)
	}
	return tw.Flush()
}

func writeCasesText(out io.Writer, list *ports.CaseList) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%d)\n", list.Title, len(list.Cases))
	fmt.Fprintln(tw, "ID\tDate\tAmbulance\tStatus\tWait\tDuration\tResponse (min)")
	for _, c := range list.Cases {
		response := "-"
		if c.ResponseTime != nil {
			response = fmt.Sprint(*c.ResponseTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Date, c.AmbulanceID, c.Status,
			analytics.FormatDuration(float64(c.AgentWaitTime)),
			analytics.FormatDuration(c.CallDuration),
			response,
		)
	}
	return tw.Flush()
}
