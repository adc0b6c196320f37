package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keychord/internal/engine"
)

func newTestEngine(t *testing.T, m *Metrics) *engine.Engine[string] {
	t.Helper()
	cat, err := engine.NewCatalog([]engine.Definition[string]{
		{Action: "copy", Keys: []engine.KeyID{1, 2}, PendingDuration: 5},
		{Action: "esc", Keys: []engine.KeyID{4, 5}, PendingDuration: 4, Release: engine.OnFirstRelease},
	})
	require.NoError(t, err)

	eng, err := engine.New(cat, engine.MinIgnoreWindowTicks, engine.WithHooks(m.Hooks()))
	require.NoError(t, err)
	return eng
}

func text(t *testing.T, m *Metrics) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	return buf.String()
}

func TestMetrics_ChordLifecycle(t *testing.T) {
	m := New([]string{"copy", "esc"})
	eng := newTestEngine(t, m)

	eng.Push(engine.Press(1))
	eng.Push(engine.Press(2))
	eng.Tick(0)
	_, ok := eng.PollAction()
	require.True(t, ok)

	eng.Push(engine.Release(1))
	eng.Push(engine.Release(2))
	eng.Tick(0)

	out := text(t, m)
	assert.Contains(t, out, `keychord_chord_activations_total{chord="copy"} 1`)
	assert.Contains(t, out, `keychord_chord_deliveries_total{chord="copy",tap="false"} 1`)
	assert.Contains(t, out, `keychord_chord_releases_total{chord="copy"} 1`)
	assert.Contains(t, out, `keychord_delivery_age_ticks_count 1`)
	assert.Contains(t, out, `keychord_timeouts_total 0`)
}

func TestMetrics_TapDelivery(t *testing.T) {
	m := New([]string{"copy", "esc"})
	eng := newTestEngine(t, m)

	eng.Push(engine.Press(4))
	eng.Push(engine.Press(5))
	eng.Tick(0)
	eng.Push(engine.Release(4))
	eng.Tick(0)
	_, ok := eng.PollAction()
	require.True(t, ok)

	assert.Contains(t, text(t, m), `keychord_chord_deliveries_total{chord="esc",tap="true"} 1`)
}

func TestMetrics_TimeoutAndEviction(t *testing.T) {
	m := New([]string{"copy", "esc"})
	eng := newTestEngine(t, m)

	for i := 0; i < engine.QueueCapacity+1; i++ {
		eng.Push(engine.Press(9))
	}
	eng.Tick(0)

	out := text(t, m)
	assert.Contains(t, out, `keychord_queue_evictions_total 1`)
	assert.Contains(t, out, `keychord_timeouts_total 1`)
}

func TestMetrics_UnknownChordIndex(t *testing.T) {
	m := New(nil)
	m.Hooks().OnActivate(engine.ChordEvent{Chord: 3})

	assert.Contains(t, text(t, m), `keychord_chord_activations_total{chord="chord3"} 1`)
}

func TestMetrics_PrivateRegistry(t *testing.T) {
	a := New([]string{"copy"})
	b := New([]string{"copy"})
	a.Hooks().OnTimeout(engine.Queued{})

	assert.Contains(t, text(t, a), "keychord_timeouts_total 1")
	assert.Contains(t, text(t, b), "keychord_timeouts_total 0", "two engines never share counters")
}
