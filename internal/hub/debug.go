package hub

import (
	"log"
	"os"
	"strings"
)

var hubDebug = func() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("WDHUB_DEBUG")))
	return v == "1" || v == "true" || v == "yes"
}()

func debugf(format string, args ...any) {
	if hubDebug {
		log.Printf(format, args...)
	}
}
