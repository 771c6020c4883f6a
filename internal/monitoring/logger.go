package monitoring

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Logf receives messages that do not belong to a tracing stream, such as
// schema migration progress. It defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// WriterLogger returns a Logf-compatible function that writes one prefixed
// line per call to w.
func WriterLogger(w io.Writer, prefix string) func(format string, v ...interface{}) {
	var mu sync.Mutex
	return func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		mu.Lock()
		defer mu.Unlock()
		io.WriteString(w, prefix+msg)
	}
}
