// Package logging emits one JSON object per line on standard output so
// container log collectors can ingest agent activity without a custom
// parser. Battle-scoped messages attach battle id and turn via Fields.
package logging

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

type Fields map[string]interface{}

func output(level, msg string, err error, fields Fields) {
	entry := make(Fields, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	entry["level"] = level
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	entry["msg"] = msg
	b, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		// fallback to plain logging
		log.Printf("%s: %s (%v)\n", level, msg, entry)
		return
	}
	log.Println(string(b))
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	output("info", msg, nil, fields)
}

// Warn logs a recoverable problem, such as a skipped protocol line or
// a decision that fell back to the default action.
func Warn(msg string, fields Fields) {
	output("warn", msg, nil, fields)
}

// Error logs an error message; the error text lands in the "error" field.
func Error(msg string, err error, fields Fields) {
	output("error", msg, err, fields)
}

// Fatal logs a fatal error and exits the process.
func Fatal(msg string, err error, fields Fields) {
	output("fatal", msg, err, fields)
	os.Exit(1)
}
