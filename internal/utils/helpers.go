// Package utils carries forward the teacher's goSafe/TrimString helpers
// (originally internal/utils/helpers.go), adapted to take a *zap.Logger
// instead of the stdlib log package so panic recovery integrates with
// the rest of this repo's structured logging.
package utils

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// GoSafe launches fn in a new goroutine, recovering and logging any
// panic under name rather than crashing the process. The session's
// accept, connection and ingress goroutines, the signaling forwarder and
// recv loop, and the sender's input-event loop are started this way.
func GoSafe(log *zap.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.String("goroutine", name),
					zap.Any("recover", r),
					zap.String("stack", string(debug.Stack())),
				)
			}
		}()
		fn()
	}()
}

// TrimString truncates s to max runes, appending an ellipsis marker when
// truncated.
func TrimString(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "...(truncated)"
}
