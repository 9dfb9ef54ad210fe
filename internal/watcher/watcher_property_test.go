//go:build property

package watcher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates batching of the debouncer
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	// Property: a burst yields one batch with one sorted event per path
	properties.Property("burst collapses to one event per path", prop.ForAll(
		func(indices []int) bool {
			if len(indices) == 0 {
				return true
			}

			debouncer := NewDebouncer(20 * time.Millisecond)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go debouncer.start(ctx)

			distinct := map[string]bool{}
			for _, i := range indices {
				path := fmt.Sprintf("p%02d.xml", i)
				distinct[path] = true
				debouncer.Add(ChangeEvent{Type: EventTypeModified, Path: path})
			}

			select {
			case events := <-debouncer.Output():
				if len(events) != len(distinct) {
					return false
				}
				for i := 1; i < len(events); i++ {
					if events[i-1].Path >= events[i].Path {
						return false
					}
				}
				return true
			case <-time.After(2 * time.Second):
				return false
			}
		},
		gen.SliceOfN(40, gen.IntRange(0, 15)),
	))

	properties.TestingRun(t)
}
