// Package simplelogger is a printf-style debug log for code that can't write to the terminal, such as the review UI while bubbletea owns the screen.
package simplelogger

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"
)

// EnvVar names the file Log appends to.
const EnvVar = "PROOFREADER_LOG_FILE"

var mu sync.Mutex

// Enabled reports whether Log writes anywhere.
func Enabled() bool {
	return os.Getenv(EnvVar) != ""
}

// Log appends a line to the file named by $PROOFREADER_LOG_FILE, prefixed with the time of day. A trailing newline is added if format doesn't end in one.
//
// If the variable is unset or the path can't be opened as a file, Log is a no-op.
func Log(format string, args ...any) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	var b bytes.Buffer
	b.WriteString(now().Format("15:04:05.000 "))
	_, _ = fmt.Fprintf(&b, format, args...)
	if b.Bytes()[b.Len()-1] != '\n' {
		_ = b.WriteByte('\n')
	}
	_, _ = f.Write(b.Bytes())
}

// now is replaced in tests.
var now = time.Now
