package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/princekumarofficial/asset-service/internal/ingest"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// errIncomplete makes the process exit non-zero without printing usage.
var errIncomplete = errors.New("batch finished with failures")

type options struct {
	workers    int
	skipHealth bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "asset-ingest <archive.zip|file.csv> [images_dir] [backend_url]",
		Short: "Bulk upload tagged images to the asset service",
		Long: `Uploads every row of a CSV to the asset service.

A zip archive is extracted to a temporary directory, its CSV is located and
each row's reference_image_path is resolved inside the archive. There,
images_dir names the directory searched by file name when a declared path
does not resolve: relative to the archive root (default
resources/nsfw_data), or searched as is when absolute. A bare CSV
is read directly and images are looked up by file name in images_dir
(default resources/nsfw_data).

The backend defaults to $BACKEND_URL, then ` + ingest.DefaultBackendURL + `.
The exit code is 0 only when every row was uploaded.`,
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "number of concurrent uploads")
	cmd.Flags().BoolVar(&opts.skipHealth, "skip-health", false, "do not check /api/health before uploading")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every row")

	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	input := args[0]
	imagesDir := ""
	if len(args) > 1 {
		imagesDir = args[1]
	}
	backendURL := os.Getenv("BACKEND_URL")
	if len(args) > 2 {
		backendURL = args[2]
	}
	if backendURL == "" {
		backendURL = ingest.DefaultBackendURL
	}

	if _, err := os.Stat(input); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), red("File not found: "+input))
		return err
	}

	client := ingest.NewHTTPClient(backendURL)
	fmt.Fprintf(out, "Backend: %s\n", bold(backendURL))

	if !opts.skipHealth {
		if err := client.Health(ctx); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), red("Backend is not reachable: "+err.Error()))
			return err
		}
		fmt.Fprintln(out, green("Backend is running"))
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	driver := &ingest.Driver{
		Uploader: client,
		Workers:  opts.workers,
		Logger:   slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})),
		Observer: &progress{out: out},
	}

	var summary *ingest.Summary
	if strings.EqualFold(filepath.Ext(input), ".zip") {
		driver.ImagesSubdir = imagesDir
		summary, _ = driver.IngestArchive(ctx, input)
	} else {
		if imagesDir == "" {
			imagesDir = ingest.DefaultImagesSubdir
		}
		fmt.Fprintf(out, "Images directory: %s\n", imagesDir)
		summary, _ = driver.IngestCSV(ctx, input, &ingest.FlatLocator{Dir: imagesDir})
	}

	report(out, summary)
	if !summary.OK() {
		return errIncomplete
	}
	return nil
}

func report(out io.Writer, summary *ingest.Summary) {
	fmt.Fprintln(out)
	fmt.Fprint(out, summary.String())

	switch {
	case summary.Aborted:
		fmt.Fprintln(out, red("Batch aborted: "+summary.AbortReason))
	case summary.Failed > 0:
		rows := make([]string, 0, len(summary.Failures))
		for _, r := range summary.FailedRows() {
			rows = append(rows, fmt.Sprint(r))
		}
		fmt.Fprintln(out, yellow(fmt.Sprintf("%d of %d rows failed; re-run rows %s", summary.Failed, summary.Total, strings.Join(rows, ", "))))
	default:
		fmt.Fprintln(out, green(fmt.Sprintf("All %d rows uploaded", summary.Total)))
	}
}

// progress prints one line per finished row
type progress struct {
	out   io.Writer
	total int
}

func (p *progress) BatchStarted(total int) {
	p.total = total
	fmt.Fprintf(p.out, "Processing %d rows\n", total)
}

func (p *progress) RowDone(outcome ingest.RowOutcome) {
	prefix := fmt.Sprintf("[%d/%d] %s", outcome.Row, p.total, outcome.Name)
	if outcome.Err != nil {
		fmt.Fprintln(p.out, red(prefix+": "+outcome.Err.Error()))
		return
	}
	fmt.Fprintln(p.out, green(fmt.Sprintf("%s: uploaded (ID %d)", prefix, outcome.AssetID)))
}

func (p *progress) BatchFinished(*ingest.Summary) {}
