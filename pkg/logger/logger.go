package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level controls which log lines are emitted.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu     sync.Mutex
	level  = INFO
	output io.Writer = os.Stderr
)

// SetLevel sets the minimum level that gets written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logc(l Level, component, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, " %-5s [%s] %s", l.String(), component, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteByte('\n')

	fmt.Fprint(output, b.String())
}

func DebugC(component, msg string) { logc(DEBUG, component, msg, nil) }
func InfoC(component, msg string)  { logc(INFO, component, msg, nil) }
func WarnC(component, msg string)  { logc(WARN, component, msg, nil) }
func ErrorC(component, msg string) { logc(ERROR, component, msg, nil) }

func DebugCF(component, msg string, fields map[string]any) { logc(DEBUG, component, msg, fields) }
func InfoCF(component, msg string, fields map[string]any)  { logc(INFO, component, msg, fields) }
func WarnCF(component, msg string, fields map[string]any)  { logc(WARN, component, msg, fields) }
func ErrorCF(component, msg string, fields map[string]any) { logc(ERROR, component, msg, fields) }
