package utils

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/decbot-sim/fieldsim/logging"
)

// SlowLogger starts a goroutine that warns with msg every few seconds of clk time until ctx is done
// or the returned function is called. The returned function waits for the goroutine to exit.
func SlowLogger(ctx context.Context, clk clock.Clock, msg, fieldName string, fieldVal interface{}, logger logging.Logger) func() {
	slowTimer := clk.Timer(2 * time.Second)
	firstTick := true

	startTime := clk.Now()
	workers := GoWorkers(ctx, func(ctx context.Context) {
		for {
			select {
			case <-slowTimer.C:
				if firstTick {
					slowTimer.Reset(3 * time.Second)
					firstTick = false
				} else {
					slowTimer.Reset(5 * time.Second)
				}
				elapsed := clk.Since(startTime).Round(time.Second).String()
				logger.Warnw(msg, fieldName, fieldVal, "time_elapsed", elapsed)
			case <-ctx.Done():
				return
			}
		}
	})
	return func() {
		workers.Stop()
		slowTimer.Stop()
	}
}
