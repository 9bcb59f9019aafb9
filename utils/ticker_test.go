package utils

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/decbot-sim/fieldsim/logging"
)

func TestSlowLogger(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mock := clock.NewMock()
	done := SlowLogger(context.Background(), mock, "still working", "job", "trials", logger)

	mock.Add(time.Second)
	test.That(t, logs.FilterMessage("still working").Len(), test.ShouldEqual, 0)

	mock.Add(time.Second)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, logs.FilterMessage("still working").Len(), test.ShouldEqual, 1)
	})
	entry := logs.FilterMessage("still working").All()[0]
	test.That(t, entry.ContextMap()["time_elapsed"], test.ShouldEqual, "2s")
	test.That(t, entry.ContextMap()["job"], test.ShouldEqual, "trials")

	mock.Add(3 * time.Second)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, logs.FilterMessage("still working").Len(), test.ShouldEqual, 2)
	})

	done()
	mock.Add(time.Minute)
	test.That(t, logs.FilterMessage("still working").Len(), test.ShouldEqual, 2)
}

func TestSlowLoggerStopsWithContext(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mock := clock.NewMock()
	ctx, cancel := context.WithCancel(context.Background())
	done := SlowLogger(ctx, mock, "still working", "job", "trials", logger)
	cancel()
	done()
	mock.Add(time.Minute)
	test.That(t, logs.Len(), test.ShouldEqual, 0)
}
