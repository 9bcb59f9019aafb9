package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// Workers is a group of goroutines sharing one cancellable context.
type Workers struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// GoWorkers starts every fn on its own goroutine. Each receives a context that is done once parent
// is done or Stop is called. A panicking worker is logged and counts as returned.
func GoWorkers(parent context.Context, fns ...func(context.Context)) *Workers {
	ctx, cancel := context.WithCancel(parent)
	w := &Workers{cancel: cancel}
	w.wg.Add(len(fns))
	for _, fn := range fns {
		goutils.PanicCapturingGo(func() {
			defer w.wg.Done()
			fn(ctx)
		})
	}
	return w
}

// Stop cancels the workers and waits for all of them to return. Calling it again is a no-op.
func (w *Workers) Stop() {
	w.cancel()
	w.wg.Wait()
}
