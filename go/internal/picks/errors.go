package picks

import (
	"errors"
	"fmt"

	"github.com/mcdev12/pickem/go/internal/models"
)

var (
	// ErrFieldLocked is returned when an edit targets a field the server locked.
	ErrFieldLocked = errors.New("field is locked")
	// ErrResyncPending is returned while picks are reloading after a conflict.
	ErrResyncPending = errors.New("picks are reloading after a conflict")
	// ErrSubmitFailed marks a failed submit after a successful save.
	ErrSubmitFailed = errors.New("submit failed")
	// ErrSaveInProgress is returned when a save is already in flight.
	ErrSaveInProgress = errors.New("a save is already in progress")
	// ErrSheetClosed is returned after OnTeardown.
	ErrSheetClosed = errors.New("pick sheet is closed")
)

// ConflictMarker is the phrase every conflict message contains.
const ConflictMarker = "updated in another session"

// ConflictError is a save rejected because the server's picks moved past the
// version the client last saw. It matches models.ErrConflict with errors.Is.
type ConflictError struct {
	GameID string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("your picks were %s; reloaded the latest version", ConflictMarker)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Is lets callers match the conflict sentinel even when Err does not wrap it.
func (e *ConflictError) Is(target error) bool {
	return target == models.ErrConflict
}

// IsConflict reports whether err is a save conflict.
func IsConflict(err error) bool {
	return errors.Is(err, models.ErrConflict)
}

// Operation names the user action behind a network call.
type Operation string

const (
	OpAutosave Operation = "autosave"
	OpSave     Operation = "save"
	OpSubmit   Operation = "submit"
)

// NoticeKind classifies the outcome of a save or submit for display.
type NoticeKind string

const (
	NoticeSaved          NoticeKind = "saved"
	NoticeSubmitted      NoticeKind = "submitted"
	NoticeLockedFields   NoticeKind = "locked_fields"
	NoticeConflict       NoticeKind = "conflict"
	NoticeAutosaveFailed NoticeKind = "autosave_failed"
	NoticeSaveFailed     NoticeKind = "save_failed"
	NoticeSubmitFailed   NoticeKind = "submit_failed"
)

// Notice is a user-facing outcome. Toast notices interrupt; the rest are
// shown as inline status text.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Toast   bool       `json:"toast"`
	Warning bool       `json:"warning"`
}

// Classify turns an error from a save or submit into a Notice.
func Classify(err error, op Operation) Notice {
	switch {
	case IsConflict(err):
		return Notice{
			Kind:    NoticeConflict,
			Message: fmt.Sprintf("Your picks were %s. The latest version has been loaded.", ConflictMarker),
			Toast:   true,
		}
	case errors.Is(err, ErrSubmitFailed):
		return Notice{Kind: NoticeSubmitFailed, Message: fmt.Sprintf("Could not submit picks: %v", err), Toast: true}
	case op == OpAutosave:
		return Notice{Kind: NoticeAutosaveFailed, Message: "Autosave failed. Your picks are kept on this device."}
	default:
		return Notice{Kind: NoticeSaveFailed, Message: fmt.Sprintf("Could not save picks: %v", err), Toast: true}
	}
}

// SavedNotice describes a successful save. Fields the server ignored because
// they were locked turn it into a warning.
func SavedNotice(result models.SaveResult, op Operation) Notice {
	if n := len(result.IgnoredLocks); n > 0 {
		return Notice{
			Kind:    NoticeLockedFields,
			Message: fmt.Sprintf("Saved, but %d locked %s ignored.", n, plural(n, "pick was", "picks were")),
			Toast:   op != OpAutosave,
			Warning: true,
		}
	}
	return Notice{Kind: NoticeSaved, Message: "Picks saved."}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
