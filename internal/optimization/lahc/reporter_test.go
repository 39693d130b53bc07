package lahc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/copyleftdev/LAHC/internal/optimization"
)

func TestTimeString(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "   0:00:00"},
		{59.4, "   0:00:59"},
		{59.6, "   0:01:00"},
		{3600, "   1:00:00"},
		{7325, "   2:02:05"},
		{3661.0, "  10:10:01"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, timeString(tt.seconds))
	}
}

func TestTableReporterPrintsHeaderAtStepZero(t *testing.T) {
	var buf bytes.Buffer
	report := NewTableReporter(&buf, 1000)

	report(optimization.Progress{Step: 0, Energy: 99.5})
	report(optimization.Progress{Step: 100, IdleSteps: 3, Energy: 42.0})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Step")
	assert.Contains(t, lines[0], "Energy")
	assert.Contains(t, lines[0], "Remaining")
	assert.Contains(t, lines[1], "9.950e+01")
	assert.Contains(t, lines[2], "4.200e+01")
}

func TestTableReporterNoHeaderMidRun(t *testing.T) {
	var buf bytes.Buffer
	report := NewTableReporter(&buf, 0)

	report(optimization.Progress{Step: 100, Energy: 1.0})
	assert.NotContains(t, buf.String(), "Idle steps")
}

func TestZapReporterEmitsStructuredEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	report := NewZapReporter(zap.New(core))

	report(optimization.Progress{
		Step:            200,
		IdleSteps:       4,
		Energy:          12.5,
		HistoryMean:     20.0,
		HistoryVariance: 4.0,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "search progress", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.EqualValues(t, 200, fields["step"])
	assert.EqualValues(t, 4, fields["idle_steps"])
	assert.Equal(t, 12.5, fields["energy"])
	assert.Equal(t, 0.1, fields["history_cov"])
}

func TestTraceRecordsAndForwards(t *testing.T) {
	trace := &Trace{}

	forwarded := 0
	report := trace.Wrap(func(optimization.Progress) { forwarded++ })

	report(optimization.Progress{Step: 0, Energy: 3.0})
	report(optimization.Progress{Step: 10, Energy: 2.0})

	entries := trace.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Step)
	assert.Equal(t, 10, entries[1].Step)
	assert.Equal(t, 2, forwarded)
}

func TestTraceWrapNilNext(t *testing.T) {
	trace := &Trace{}
	report := trace.Wrap(nil)

	report(optimization.Progress{Step: 5})
	require.Len(t, trace.Entries(), 1)
}
