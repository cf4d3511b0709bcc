package core

// bulk.go implements whole-dataset operations: CSV import and export,
// synthetic data generation and delete-all.
//
// Every service-backed operation follows the same state machine:
//
//	Idle -> Pending (service call in flight) -> Idle
//
// On success the bound view is reloaded from scratch; on failure the
// service message is surfaced and nothing is reloaded. Nothing is retried.

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/SensorDesk/internal/logging"
)

// BulkState is the state of the Bulk controller.
type BulkState string

const (
	BulkIdle    BulkState = "idle"
	BulkPending BulkState = "pending"
)

// Download is a file produced for the browser.
type Download struct {
	FileName    string
	ContentType string
	Body        []byte
}

// exportPageSize is the window used by ExportAll when paging the dataset.
const exportPageSize = 200

// Bulk is the bulk data controller for one view.
type Bulk struct {
	svc    BulkService
	src    SensorSource // Used only by ExportAll
	reload Reloader
	notify Notifier

	mu      sync.Mutex
	state   BulkState
	current string // Name of the pending operation
}

// NewBulk creates a bulk controller. reload is called after every successful
// mutation; src may be nil if ExportAll is not used.
func NewBulk(svc BulkService, src SensorSource, reload Reloader, notify Notifier) *Bulk {
	if notify == nil {
		notify = discardNotifier{}
	}
	return &Bulk{
		svc:    svc,
		src:    src,
		reload: reload,
		notify: notify,
		state:  BulkIdle,
	}
}

// State returns the current state and, when pending, the operation name.
func (b *Bulk) State() (BulkState, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.current
}

// ImportCSV hands the first uploaded file to the service for parsing and
// insertion. With no files it reports a precondition error and makes no call.
func (b *Bulk) ImportCSV(ctx context.Context, files []UploadedFile) error {
	if len(files) == 0 {
		b.notify.Notify(ctx, Notification{
			Title:    "Error",
			Message:  "Error while uploading file",
			Severity: SeverityError,
			Code:     MapError(ErrNoFile).Code,
		})
		return ErrNoFile
	}

	file := files[0]
	return b.run(ctx, "import", "Error while parsing data: ", func(ctx context.Context) error {
		logging.WithFields(ctx, "file", file.Name, "size", file.Size).Info("importing sensor csv")
		return b.svc.ImportFile(ctx, file)
	})
}

// GenerateSampleData asks the service to create a synthetic dataset.
func (b *Bulk) GenerateSampleData(ctx context.Context) error {
	return b.run(ctx, "generate", "Error generating data: ", b.svc.GenerateSampleData)
}

// DeleteAllData asks the service to delete every record.
func (b *Bulk) DeleteAllData(ctx context.Context) error {
	return b.run(ctx, "delete-all", "Error deleting data: ", b.svc.DeleteAllData)
}

// run drives one operation through Idle -> Pending -> Idle.
func (b *Bulk) run(ctx context.Context, op, prefix string, call func(context.Context) error) error {
	b.mu.Lock()
	if b.state == BulkPending {
		pending := b.current
		b.mu.Unlock()
		b.notify.Notify(ctx, Notification{
			Title:    "Please wait",
			Message:  fmt.Sprintf("Another operation (%s) is still running", pending),
			Severity: SeverityWarning,
			Code:     MapError(ErrOperationPending).Code,
		})
		return fmt.Errorf("%s: %w", op, ErrOperationPending)
	}
	b.state = BulkPending
	b.current = op
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.state = BulkIdle
		b.current = ""
		b.mu.Unlock()
	}()

	if err := call(ctx); err != nil {
		b.notify.Notify(ctx, errorNotification("Error", prefix, err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if b.reload != nil {
		if err := b.reload.Reload(ctx); err != nil {
			return fmt.Errorf("%s: reload: %w", op, err)
		}
	}
	return nil
}

// ExportCSV serializes the already-loaded rows. It never fetches.
func (b *Bulk) ExportCSV(rows []SensorRecord) (Download, error) {
	body, err := MarshalCSV(rows)
	if err != nil {
		return Download{}, fmt.Errorf("export csv: %w", err)
	}
	return Download{FileName: ExportFileName, ContentType: ExportContentType, Body: body}, nil
}

// ExportXLSX serializes the already-loaded rows as an Excel workbook.
func (b *Bulk) ExportXLSX(rows []SensorRecord) (Download, error) {
	body, err := MarshalXLSX(rows)
	if err != nil {
		return Download{}, fmt.Errorf("export xlsx: %w", err)
	}
	return Download{FileName: WorkbookFileName, ContentType: WorkbookContentType, Body: body}, nil
}

// ExportAll pages through the whole dataset and serializes it as CSV.
// Station names are resolved with enricher when it is non-nil.
func (b *Bulk) ExportAll(ctx context.Context, enricher *Enricher) (Download, error) {
	if b.src == nil {
		return Download{}, fmt.Errorf("export all: no sensor source configured")
	}

	var all []SensorRecord
	for offset := 0; ; offset += exportPageSize {
		rows, err := b.src.Page(ctx, exportPageSize, offset)
		if err != nil {
			b.notify.Notify(ctx, errorNotification("Error", "Error exporting data: ", err))
			return Download{}, fmt.Errorf("export all at offset %d: %w", offset, err)
		}
		if enricher != nil {
			rows = enricher.Enrich(ctx, rows)
		}
		all = append(all, rows...)
		if len(rows) < exportPageSize {
			break
		}
	}

	return b.ExportCSV(all)
}
