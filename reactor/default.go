// File: reactor/default.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"context"
	"log"
	"sync"
)

var (
	defaultOnce   sync.Once
	defaultPoller *Poller
	defaultErr    error
)

// Default returns a process-wide poller, started on first use. It runs
// until the process exits.
func Default() (*Poller, error) {
	defaultOnce.Do(func() {
		defaultPoller, defaultErr = NewPoller(nil)
		if defaultErr != nil {
			return
		}
		go func() {
			if err := defaultPoller.Run(context.Background()); err != nil {
				log.Printf("[Poller] default poller stopped: %v", err)
			}
		}()
	})
	return defaultPoller, defaultErr
}
