// Package upload drives the statement upload widget.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cashboard/internal/core"
	"cashboard/internal/format"
)

// State of the widget.
type State string

const (
	Idle      State = "idle"
	Selected  State = "selected"
	Uploading State = "uploading"
	Succeeded State = "success"
	Failed    State = "error"
)

// DefaultStatusDisplay is how long a success or error outcome stays visible.
const DefaultStatusDisplay = 3 * time.Second

var ErrInvalidTransition = errors.New("upload: invalid state transition")

// Uploader performs the upload; the store satisfies it.
type Uploader interface {
	UploadFile(ctx context.Context, f core.File, ownerID string) (core.UploadResult, error)
}

// View is an immutable snapshot of the widget.
type View struct {
	State    State
	FileName string
	FileSize string
	Message  string
	Result   *core.UploadResult
}

// Busy reports whether an upload is in flight.
func (v View) Busy() bool { return v.State == Uploading }

// Widget is the upload state machine:
// idle -> selected -> uploading -> success | error -> idle.
// A failed upload keeps its file, so error -> uploading retries it and an
// expired error returns to selected.
type Widget struct {
	mu      sync.Mutex
	state   State
	file    *core.File
	message string
	result  *core.UploadResult
	settled time.Time

	ownerID string
	display time.Duration
	now     func() time.Time
}

// Option configures a Widget.
type Option func(*Widget)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Widget) { w.now = now }
}

// WithStatusDisplay overrides how long outcomes stay visible.
func WithStatusDisplay(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.display = d
		}
	}
}

func NewWidget(ownerID string, opts ...Option) *Widget {
	w := &Widget{
		state:   Idle,
		ownerID: ownerID,
		display: DefaultStatusDisplay,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Select validates f and holds it for upload. An invalid file only sets the
// validation message: a file already held stays selected, otherwise the
// widget is idle. The returned error is the *core.ValidationError.
func (w *Widget) Select(f core.File) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expireLocked(w.now())
	if w.state == Uploading {
		return ErrInvalidTransition
	}
	if err := core.ValidateFile(f); err != nil {
		w.state = Idle
		if w.file != nil {
			w.state = Selected
		}
		w.result = nil
		w.message = err.Error()
		return err
	}
	w.state = Selected
	w.file = &f
	w.result = nil
	w.message = ""
	return nil
}

// Submit uploads the held file. It is valid from Selected, and from Failed
// to retry the same file.
func (w *Widget) Submit(ctx context.Context, u Uploader) error {
	w.mu.Lock()
	if (w.state != Selected && w.state != Failed) || w.file == nil {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	f := *w.file
	w.state = Uploading
	w.message = ""
	w.mu.Unlock()

	res, err := u.UploadFile(ctx, f, w.ownerID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.settled = w.now()
	if err != nil {
		w.state = Failed
		w.message = err.Error()
		return err
	}
	w.file = nil
	w.state = Succeeded
	w.result = &res
	w.message = fmt.Sprintf("Uploaded %s (%d rows)", f.Name, res.RowsProcessed)
	return nil
}

// Clear drops the pending file and returns to idle. Nothing is cleared
// while an upload is in flight.
func (w *Widget) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Uploading {
		return ErrInvalidTransition
	}
	w.state = Idle
	w.file = nil
	w.result = nil
	w.message = ""
	return nil
}

// Expire returns a settled widget to idle once its outcome has been shown
// long enough. It reports whether the state changed.
func (w *Widget) Expire(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expireLocked(now)
}

func (w *Widget) expireLocked(now time.Time) bool {
	if w.state != Succeeded && w.state != Failed {
		return false
	}
	if now.Sub(w.settled) < w.display {
		return false
	}
	w.state = Idle
	if w.file != nil {
		w.state = Selected
	}
	w.message = ""
	w.result = nil
	return true
}

// View returns the current snapshot, applying expiry first.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expireLocked(w.now())
	v := View{State: w.state, Message: w.message, Result: w.result}
	if w.file != nil {
		v.FileName = w.file.Name
		v.FileSize = format.Bytes(w.file.Size)
	}
	return v
}
