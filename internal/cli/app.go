// Package cli is the salesreport command: it loads the workbook, prints
// the dashboard figures for a selection and writes optional exports.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/console"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const (
	reportCSV = "csv"
	reportPDF = "pdf"
)

var reportTypes = []string{reportCSV, reportPDF}

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd *cobra.Command
	version string
	now     func() time.Time
}

// Args holds the parsed flags. A nil dimension was not given on the
// command line and selects every observed value.
type Args struct {
	File         string
	ConfigFile   string
	City         []string
	CustomerType []string
	Gender       []string
	ReportTypes  []string
	Dir          string
	ReportName   string
}

func NewCLIApp(version string) *CLIApp {
	app := &CLIApp{
		version: version,
		now:     time.Now,
	}

	rootCmd := &cobra.Command{
		Use:           "salesreport",
		Short:         "Print sales dashboard figures and export reports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          app.runCommand,
	}
	rootCmd.SetVersionTemplate(`{{printf "salesreport version: %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringP("file", "f", "", "Path to the sales workbook (default from config)")
	flags.StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	flags.StringSlice("city", nil, "Cities to include (comma-separated, default: all)")
	flags.StringSlice("customer-type", nil, "Customer types to include (comma-separated, default: all)")
	flags.StringSlice("gender", nil, "Genders to include (comma-separated, default: all)")
	flags.StringSliceP("report-type", "y", nil, "Report types to write: csv, pdf")
	flags.StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	flags.StringP("report-name", "n", "", "Base name for the report files (without extension)")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

func (app *CLIApp) parseArgs() (*Args, error) {
	flags := app.rootCmd.Flags()

	file, _ := flags.GetString("file")
	configFile, _ := flags.GetString("config-file")
	types, _ := flags.GetStringSlice("report-type")
	dir, _ := flags.GetString("dir")
	reportName, _ := flags.GetString("report-name")

	for _, t := range types {
		if !slices.Contains(reportTypes, t) {
			return nil, fmt.Errorf("unsupported report type %q, must be one of: csv, pdf", t)
		}
	}

	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	} else {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	return &Args{
		File:         file,
		ConfigFile:   configFile,
		City:         dimensionFlag(flags, "city"),
		CustomerType: dimensionFlag(flags, "customer-type"),
		Gender:       dimensionFlag(flags, "gender"),
		ReportTypes:  types,
		Dir:          dir,
		ReportName:   reportName,
	}, nil
}

// dimensionFlag is nil when the flag was not given and a possibly empty
// set when it was, so --city= selects no city.
func dimensionFlag(flags *pflag.FlagSet, name string) []string {
	if !flags.Changed(name) {
		return nil
	}
	raw, _ := flags.GetStringSlice(name)
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

// Selection resolves unset dimensions against the defaults.
func (a *Args) Selection(defaults models.FilterSelection) models.FilterSelection {
	pick := func(v, d []string) []string {
		if v == nil {
			return d
		}
		return v
	}
	return models.FilterSelection{
		City:         pick(a.City, defaults.City),
		CustomerType: pick(a.CustomerType, defaults.CustomerType),
		Gender:       pick(a.Gender, defaults.Gender),
	}
}

func (app *CLIApp) runCommand(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, console.Banner(app.version))

	args, err := app.parseArgs()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(args.ConfigFile)
	if err != nil {
		return err
	}
	if args.File != "" {
		cfg.Dataset.File = args.File
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger)

	loader := dataset.NewLoader(cfg.Dataset.File, logger)
	table, err := loader.Load(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprint(out, pterm.Info.Sprintfln("Loaded %d sales records from %s", table.Len(), cfg.Dataset.File))

	sel := args.Selection(services.DefaultSelection(table))
	summary := services.Aggregate(table, sel)

	fmt.Fprintln(out)
	fmt.Fprint(out, console.Selection(sel))
	report, err := console.RenderSummary(summary)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, report)

	return app.writeReports(out, args, table, sel, summary)
}

func (app *CLIApp) writeReports(out io.Writer, args *Args, table *models.Table, sel models.FilterSelection, summary models.Summary) error {
	if len(args.ReportTypes) == 0 {
		return nil
	}

	name := args.ReportName
	if name == "" {
		name = "sales_report_" + app.now().Format("20060102_1504")
	}

	for _, t := range args.ReportTypes {
		path := filepath.Join(args.Dir, name+"."+t)
		if err := writeReport(path, t, table, sel, summary, app.now()); err != nil {
			return fmt.Errorf("write %s report: %w", t, err)
		}
		fmt.Fprint(out, pterm.Success.Sprintfln("%s report saved to %s", console.BrightGreen(t), path))
	}
	return nil
}

func writeReport(path, reportType string, table *models.Table, sel models.FilterSelection, summary models.Summary, now time.Time) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch reportType {
	case reportCSV:
		return export.WriteCSV(f, summary.Rows)
	case reportPDF:
		return export.WritePDF(f, summary, export.ReportMeta{
			Title:       "Realtime Sales Dashboard",
			Source:      table.Source,
			GeneratedAt: now.UTC(),
			Selection:   sel,
		})
	default:
		return fmt.Errorf("unsupported report type %q", reportType)
	}
}
