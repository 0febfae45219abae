package main

import (
	"fmt"
)

// background runs fn in its own goroutine, recovering panics, and lets
// run() wait for it on shutdown.
func (app *application) background(fn func()) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background task panicked", "error", fmt.Sprintf("%v", err))
			}
		}()

		fn()
	}()
}
