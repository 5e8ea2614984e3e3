package picks

import "time"

// DefaultQuietPeriod is how long the sheet must be idle before an autosave.
const DefaultQuietPeriod = 1200 * time.Millisecond

// Autosaver decides when a debounced autosave runs. It holds no timers; the
// caller passes the current time and arms its own timer for Deadline.
type Autosaver struct {
	quiet    time.Duration
	deadline time.Time
	pending  bool
	editing  bool

	failed            bool
	failedFingerprint string
}

// NewAutosaver creates an Autosaver with the given quiet period.
func NewAutosaver(quiet time.Duration) *Autosaver {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Autosaver{quiet: quiet}
}

// Touch records an edit. The quiet period restarts and any remembered failure
// is forgotten.
func (a *Autosaver) Touch(now time.Time) {
	a.pending = true
	a.deadline = now.Add(a.quiet)
	a.failed = false
	a.failedFingerprint = ""
}

// Defer postpones a pending autosave by one quiet period without forgetting
// a remembered failure.
func (a *Autosaver) Defer(now time.Time) {
	a.pending = true
	a.deadline = now.Add(a.quiet)
}

// SetEditing opens or closes an edit session. Autosave never fires while one
// is open; closing it restarts the quiet period of a pending save.
func (a *Autosaver) SetEditing(now time.Time, editing bool) {
	if a.editing == editing {
		return
	}
	a.editing = editing
	if !editing && a.pending {
		a.deadline = now.Add(a.quiet)
	}
}

// Editing reports whether an edit session is open.
func (a *Autosaver) Editing() bool {
	return a.editing
}

// Due reports whether an autosave of the sheet with the given fingerprint
// should start now. A pending save of a payload that already failed is
// dropped.
func (a *Autosaver) Due(now time.Time, fingerprint string) bool {
	if !a.pending || a.editing || now.Before(a.deadline) {
		return false
	}
	if a.failed && fingerprint == a.failedFingerprint {
		a.pending = false
		return false
	}
	return true
}

// Fired records that a save started; the pending autosave is consumed.
func (a *Autosaver) Fired() {
	a.pending = false
	a.deadline = time.Time{}
}

// Failed remembers the payload of a failed autosave.
func (a *Autosaver) Failed(fingerprint string) {
	a.failed = true
	a.failedFingerprint = fingerprint
}

// Succeeded forgets any remembered failure.
func (a *Autosaver) Succeeded() {
	a.failed = false
	a.failedFingerprint = ""
}

// Pending reports whether an autosave is waiting to run.
func (a *Autosaver) Pending() bool {
	return a.pending
}

// Deadline returns when the caller should next check Due.
func (a *Autosaver) Deadline() (time.Time, bool) {
	if !a.pending || a.editing {
		return time.Time{}, false
	}
	return a.deadline, true
}
