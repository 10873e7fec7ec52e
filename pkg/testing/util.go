// Package testing provides helpers shared by storeguard tests.
package testing

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogOutputWriter is a writer for log output.
type LogOutputWriter struct {
	// Output is the log output.
	Output *[]byte
}

// Write writes the log output.
func (w *LogOutputWriter) Write(p []byte) (n int, err error) {
	*w.Output = append(*w.Output, p...)
	return len(p), nil
}

// CaptureLogs redirects logger output into the returned buffer.
func CaptureLogs(logger *logrus.Logger) *[]byte {
	out := []byte{}
	logger.SetOutput(&LogOutputWriter{Output: &out})
	return &out
}

var (
	levelRe   = regexp.MustCompile(`level=.*?msg=`)
	spaceRe   = regexp.MustCompile(`\s+`)
	newlineRe = regexp.MustCompile(`\n+`)
)

// CleanLog strips logrus key prefixes and collapses whitespace so log
// output can be compared against plain messages.
func CleanLog(input string) string {
	splitLog := strings.Split(input, "msg=")
	if len(splitLog) > 2 {
		input = levelRe.ReplaceAllString(input, "")
	} else {
		input = splitLog[len(splitLog)-1]
	}
	input = spaceRe.ReplaceAllString(input, " ")
	input = newlineRe.ReplaceAllString(input, "\n")
	return strings.TrimSpace(input)
}
