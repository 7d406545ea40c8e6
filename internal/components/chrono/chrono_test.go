package chrono

import (
	"context"
	"gradewatch/internal/components/telemetry/telemetrytest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardTime(t *testing.T) {
	clock, err := NewStandardTime("America/Sao_Paulo")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "America/Sao_Paulo", clock.Location().String())
	require.Equal(t, clock.Location(), clock.Now().Location())

	_, err = NewStandardTime("Not/A_Zone")
	require.Error(t, err)
}

func TestStandardCron(t *testing.T) {
	rec := telemetrytest.NewRecorder()
	cronner := NewStandardCron(StandardTime{}, rec)
	defer cronner.Stop(context.Background())

	require.Error(t, cronner.Cron("not a schedule", func() {}))

	var calls atomic.Int64
	err := cronner.Cron("@every 1s", func() {
		calls.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}

	require.Eventually(t, func() bool {
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
}
