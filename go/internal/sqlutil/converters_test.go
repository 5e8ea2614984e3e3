package sqlutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNullRawMessage(t *testing.T) {
	assert.False(t, ToNullRawMessage(nil).Valid)
	assert.Nil(t, FromNullRawMessage(ToNullRawMessage(nil)))

	raw := json.RawMessage(`{"a":1}`)
	got := FromNullRawMessage(ToNullRawMessage(raw))
	assert.JSONEq(t, `{"a":1}`, string(got))

	got[0] = '['
	assert.Equal(t, byte('{'), raw[0], "the result must not alias the input")
}

func TestNullUnixNano(t *testing.T) {
	assert.False(t, ToNullUnixNano(time.Time{}).Valid)
	assert.True(t, FromNullUnixNano(ToNullUnixNano(time.Time{})).IsZero())

	ts := time.Date(2026, 4, 5, 19, 0, 0, 123456789, time.FixedZone("EDT", -4*3600))
	back := FromNullUnixNano(ToNullUnixNano(ts))
	assert.True(t, back.Equal(ts), "nanosecond precision survives")
	assert.Equal(t, time.UTC, back.Location())
}
