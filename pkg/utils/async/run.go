package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Run executes handler on a new goroutine so that the caller stays free to
// react to signals while blocking work proceeds.
//
// Behavior:
//   - ctx is passed through unchanged; cancelling it is how the caller asks the handler to stop
//   - a panic is recovered, logged with its stack and reported as an error
//   - the returned channel receives exactly one value and is then closed
func Run(ctx context.Context, handler func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(ctx)
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(stack))
				done <- goerr.New("panic in async handler", goerr.V("recover", r))
			}
		}()

		done <- handler(ctx)
	}()

	return done
}
