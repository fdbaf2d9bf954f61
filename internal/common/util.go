package common

import "fmt"

// SafeGo runs a function in a goroutine and sends the result to the channel.
// If the function panics, the panic is converted to an error and sent instead.
func SafeGo(ch chan<- error, f func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- fmt.Errorf("panic: %v", r)
			}
		}()

		ch <- f()
	}()
}
