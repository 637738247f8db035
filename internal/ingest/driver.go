package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/princekumarofficial/asset-service/internal/types"
	"golang.org/x/sync/errgroup"
)

// ErrMissingPath is the row failure for a blank reference_image_path cell.
var ErrMissingPath = errors.New("missing " + ColumnPath)

// Uploader stores one image with its metadata and returns the new asset id.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string, meta types.Metadata) (int64, error)
}

// RowOutcome is the result of a single row. Err is nil on success.
type RowOutcome struct {
	Row     int
	Name    string
	Path    string
	AssetID int64
	Err     error
}

// Observer is notified as a batch progresses. Calls are serialized.
type Observer interface {
	BatchStarted(total int)
	RowDone(outcome RowOutcome)
	BatchFinished(summary *Summary)
}

// Observers fans notifications out to every member.
type Observers []Observer

func (o Observers) BatchStarted(total int) {
	for _, obs := range o {
		obs.BatchStarted(total)
	}
}

func (o Observers) RowDone(outcome RowOutcome) {
	for _, obs := range o {
		obs.RowDone(outcome)
	}
}

func (o Observers) BatchFinished(summary *Summary) {
	for _, obs := range o {
		obs.BatchFinished(summary)
	}
}

// Driver runs ingestion batches. Every row yields exactly one outcome and a
// failing row never stops the batch. Rows are processed in file order;
// with Workers > 1 up to that many uploads are in flight at once.
//
// The driver does no duplicate detection: running the same CSV twice
// uploads every row twice.
type Driver struct {
	Uploader     Uploader
	Workers      int
	ImagesSubdir string
	// TempDir is the parent for extraction directories; "" means os.TempDir.
	TempDir  string
	Observer Observer
	Logger   *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// IngestArchive extracts a zip archive into a fresh temporary directory,
// finds its CSV and ingests every row. The directory is removed on every
// exit path. A non-nil error means the batch was aborted; the returned
// summary then carries the reason.
func (d *Driver) IngestArchive(ctx context.Context, zipPath string) (*Summary, error) {
	log := d.logger().With(slog.String("archive", zipPath))
	summary := &Summary{Failures: []Failure{}}

	dir, err := os.MkdirTemp(d.TempDir, "asset-ingest-*")
	if err != nil {
		return d.finishAborted(summary, fmt.Errorf("failed to create temporary directory: %w", err))
	}
	defer func() {
		log.Info("Cleaning up extracted files", slog.String("dir", dir))
		if err := os.RemoveAll(dir); err != nil {
			log.Error("Failed to remove temporary directory", slog.String("dir", dir), slog.String("error", err.Error()))
		}
	}()

	log.Info("Extracting archive", slog.String("dir", dir))
	if err := extractArchive(zipPath, dir); err != nil {
		return d.finishAborted(summary, err)
	}

	csvPath, err := findCSV(dir)
	if err != nil {
		if !errors.Is(err, ErrNoCSV) {
			err = fmt.Errorf("%w: %v", ErrNoCSV, err)
		}
		return d.finishAborted(summary, err)
	}
	log.Info("Found CSV file", slog.String("csv", filepath.Base(csvPath)))

	subdir := d.ImagesSubdir
	if subdir == "" {
		subdir = DefaultImagesSubdir
	}
	loc := &ArchiveLocator{Root: dir, CSVDir: filepath.Dir(csvPath), ImagesSubdir: subdir}

	return d.IngestCSV(ctx, csvPath, loc)
}

// IngestCSV ingests every row of the CSV at csvPath, resolving image paths
// with loc. A non-nil error means the CSV could not be read at all.
func (d *Driver) IngestCSV(ctx context.Context, csvPath string, loc Locator) (*Summary, error) {
	summary := &Summary{Failures: []Failure{}}

	records, err := readRecords(csvPath)
	if err != nil {
		return d.finishAborted(summary, err)
	}

	summary.Total = len(records)
	d.logger().Info("Processing rows", slog.String("csv", csvPath), slog.Int("rows", summary.Total))

	var mu sync.Mutex
	notify := func(fn func(Observer)) {
		if d.Observer == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fn(d.Observer)
	}
	notify(func(o Observer) { o.BatchStarted(summary.Total) })

	outcomes := make([]RowOutcome, len(records))
	run := func(i int) {
		var out RowOutcome
		if err := ctx.Err(); err != nil {
			row := Normalize(records[i])
			out = RowOutcome{Row: i + 1, Name: row.Name, Path: row.Path, Err: fmt.Errorf("cancelled: %w", err)}
		} else {
			out = d.processRow(ctx, i+1, records[i], loc)
		}
		outcomes[i] = out
		notify(func(o Observer) { o.RowDone(out) })
	}

	if d.Workers <= 1 {
		for i := range records {
			run(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(d.Workers)
		for i := range records {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, out := range outcomes {
		if out.Err == nil {
			summary.Successful++
			continue
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, Failure{
			Row:    out.Row,
			Name:   out.Name,
			Path:   out.Path,
			Reason: out.Err.Error(),
		})
	}

	d.logger().Info("Batch finished",
		slog.Int("total", summary.Total),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed))
	notify(func(o Observer) { o.BatchFinished(summary) })

	return summary, nil
}

func (d *Driver) processRow(ctx context.Context, n int, record map[string]string, loc Locator) RowOutcome {
	row := Normalize(record)
	out := RowOutcome{Row: n, Name: row.Name, Path: row.Path}
	log := d.logger().With(slog.Int("row", n), slog.String("name", row.Name))

	if row.Path == "" {
		out.Err = ErrMissingPath
		log.Warn("Row failed", slog.String("error", out.Err.Error()))
		return out
	}

	resolved, err := loc.Locate(row.Path)
	if err != nil {
		out.Err = err
		log.Warn("Image not found", slog.String("declared", row.Path))
		return out
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		out.Err = fmt.Errorf("failed to read image: %w", err)
		log.Warn("Row failed", slog.String("error", out.Err.Error()))
		return out
	}

	id, err := d.Uploader.Upload(ctx, data, filepath.Base(resolved), row.Meta)
	if err != nil {
		out.Err = err
		log.Warn("Upload failed", slog.String("path", resolved), slog.String("error", err.Error()))
		return out
	}

	out.AssetID = id
	log.Info("Uploaded",
		slog.String("path", resolved),
		slog.Int64("asset_id", id),
		slog.String("angles", types.Value(row.Meta.Angle1)+", "+types.Value(row.Meta.Angle2)))
	return out
}

func (d *Driver) finishAborted(summary *Summary, err error) (*Summary, error) {
	summary.abort(err)
	d.logger().Error("Batch aborted", slog.String("reason", summary.AbortReason))
	if d.Observer != nil {
		d.Observer.BatchFinished(summary)
	}
	return summary, err
}
