package picks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAutosaverDebounce(t *testing.T) {
	a := NewAutosaver(DefaultQuietPeriod)
	_, ok := a.Deadline()
	assert.False(t, ok)

	a.Touch(t0)
	a.Touch(t0.Add(time.Second))

	assert.False(t, a.Due(t0.Add(1500*time.Millisecond), "fp"), "quiet period restarts on every edit")
	deadline, ok := a.Deadline()
	assert.True(t, ok)
	assert.Equal(t, t0.Add(2200*time.Millisecond), deadline)
	assert.True(t, a.Due(deadline, "fp"))

	a.Fired()
	assert.False(t, a.Pending())
	assert.False(t, a.Due(deadline.Add(time.Hour), "fp"))
}

func TestAutosaverEditingGuard(t *testing.T) {
	a := NewAutosaver(DefaultQuietPeriod)
	a.SetEditing(t0, true)
	a.Touch(t0)

	assert.False(t, a.Due(t0.Add(time.Hour), "fp"))
	_, ok := a.Deadline()
	assert.False(t, ok)

	blur := t0.Add(10 * time.Second)
	a.SetEditing(blur, false)
	deadline, ok := a.Deadline()
	assert.True(t, ok)
	assert.Equal(t, blur.Add(DefaultQuietPeriod), deadline)
	assert.True(t, a.Due(deadline, "fp"))
}

func TestAutosaverFailureMemo(t *testing.T) {
	a := NewAutosaver(DefaultQuietPeriod)
	a.Touch(t0)
	a.Fired()
	a.Failed("fp-1")

	// something re-arms without an edit: the identical payload is not retried
	a.Defer(t0)
	assert.False(t, a.Due(t0.Add(time.Hour), "fp-1"))
	assert.False(t, a.Pending())

	// an edit clears the memo
	a.Touch(t0.Add(time.Minute))
	assert.True(t, a.Due(t0.Add(2*time.Minute), "fp-1"))

	a.Failed("fp-2")
	a.Succeeded()
	a.Defer(t0)
	assert.True(t, a.Due(t0.Add(time.Hour), "fp-2"))
}
