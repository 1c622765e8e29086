package utils

import "log"

// Logf prints consistent server logs.
func Logf(format string, v ...any) {
	log.Printf("[fable] "+format, v...)
}
