// Package check implements the check command.
package check

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/parity"
	"github.com/agentstation/parity/cmd/application"
	"github.com/agentstation/parity/internal/cmd/output"
	"github.com/agentstation/parity/internal/cmd/table"
	"github.com/agentstation/parity/internal/matcher"
	"github.com/agentstation/parity/internal/sources/files"
	"github.com/agentstation/parity/pkg/constants"
	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/logging"
)

// ErrFailed is returned when at least one stream fails reconciliation.
var ErrFailed = errors.New("parity check failed")

// Flags holds the check command's flags.
type Flags struct {
	ExpectedDir  string
	OutputFile   string
	Streams      []string
	Exclude      []string
	Concurrency  int
	AllowMissing bool
	RunID        string
}

// NewCommand creates the check command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Reconcile pipeline output against expected records",
		Long: `Check reconciles every stream in the catalog, or the streams named with
--stream, against the pipeline's captured output.

Expected records are read from <expected-dir>/<stream>.{json,jsonl,yaml,yml};
derived streams may be laid out per parent as <expected-dir>/<stream>/<id>.<ext>.
The pipeline output is newline-delimited JSON of Singer messages or captured
{"action", "stream", "data"} messages; only upserts are compared.

The command exits non-zero when any stream fails.`,
		Example: `  parity check --expected-dir testdata/expected --output-file sync.jsonl
  parity check -e expected -f sync.jsonl --stream owners -o json
  parity check -e expected -f sync.jsonl --stream 'contact*' --exclude contact_lists`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.ExpectedDir, "expected-dir", "e", "", "directory of expected record files")
	cmd.Flags().StringVarP(&flags.OutputFile, "output-file", "f", "", "captured pipeline output (- for stdin)")
	cmd.Flags().StringSliceVarP(&flags.Streams, "stream", "s", nil, "stream name or glob to check (repeatable, default all)")
	cmd.Flags().StringSliceVar(&flags.Exclude, "exclude", nil, "stream name or glob to skip (repeatable)")
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", 0, "streams fetched at once")
	cmd.Flags().BoolVar(&flags.AllowMissing, "allow-missing", false, "treat a stream without an expected file as empty")
	cmd.Flags().StringVar(&flags.RunID, "run-id", "", "identifier attached to every log line (default current UTC time)")

	return cmd
}

// merge fills unset flags from the application settings.
func (f *Flags) merge(cmd *cobra.Command, s application.Settings) {
	if !cmd.Flags().Changed("expected-dir") {
		f.ExpectedDir = s.ExpectedDir
	}
	if !cmd.Flags().Changed("output-file") {
		f.OutputFile = s.OutputFile
	}
	f.Exclude = append(f.Exclude, s.ExcludeStreams...)
	if !cmd.Flags().Changed("concurrency") {
		f.Concurrency = s.FetchConcurrency
	}
	if !cmd.Flags().Changed("allow-missing") {
		f.AllowMissing = s.AllowMissing
	}
}

func run(cmd *cobra.Command, app application.Application, flags *Flags) error {
	flags.merge(cmd, app.Settings())
	if flags.ExpectedDir == "" {
		return &errors.ValidationError{Field: "expected-dir", Message: "required (flag, PARITY_EXPECTED_DIR or expected_dir in config)"}
	}
	if flags.OutputFile == "" {
		return &errors.ValidationError{Field: "output-file", Message: "required (flag, PARITY_OUTPUT_FILE or output_file in config)"}
	}
	if flags.RunID == "" {
		flags.RunID = time.Now().UTC().Format("20060102T150405Z")
	}

	catalog, err := app.Catalog()
	if err != nil {
		return err
	}
	include, err := matcher.Expand(flags.Streams, catalog.Names())
	if err != nil {
		return err
	}
	exclude, err := matcher.Expand(flags.Exclude, catalog.Names())
	if err != nil {
		return err
	}

	opts := []parity.Option{
		parity.WithStreams(include...),
		parity.WithExcluded(exclude...),
	}
	if flags.Concurrency > 0 {
		opts = append(opts, parity.WithFetchConcurrency(flags.Concurrency))
	}
	checker, err := app.Checker(opts...)
	if err != nil {
		return err
	}

	captured, err := files.ReadOutput(flags.OutputFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, constants.CommandTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, app.Logger())
	ctx = logging.WithRun(ctx, flags.RunID)

	fetcher := files.New(flags.ExpectedDir, files.WithAllowMissing(flags.AllowMissing))
	report, err := checker.Run(ctx, fetcher, captured)
	if err != nil {
		return err
	}

	if err := render(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), report); err != nil {
		return err
	}

	if !report.Passed() {
		return fmt.Errorf("%w: %s", ErrFailed, report.Summary())
	}
	return nil
}

func render(w io.Writer, format output.Format, report *parity.Report) error {
	if !format.IsTable() {
		return output.NewFormatter(format).Format(w, report)
	}

	formatter := output.NewFormatter(format)
	if err := formatter.Format(w, table.VerdictsToTableData(report.Verdicts, format == output.FormatWide)); err != nil {
		return err
	}
	failures := table.FailuresToTableData(report.Verdicts)
	if len(failures.Rows) == 0 {
		_, err := fmt.Fprintf(w, "\n%s\n", report.Summary())
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := formatter.Format(w, failures); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", report.Summary())
	return err
}
