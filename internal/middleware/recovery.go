// Package middleware provides panic recovery. Signal generators and
// per-connection request compute run behind it so a single failure never
// takes down the listener.
package middleware

import (
	"fmt"
	"runtime/debug"

	"nudge/internal/logger"
)

// SafeCallWithResult calls fn, converting a panic into an error while
// preserving the result type.
func SafeCallWithResult[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered",
				"error", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
