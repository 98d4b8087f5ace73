/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package utils holds the named logrus loggers shared by the other packages.
package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const (
	FormatText = "text"
	FormatJSON = "json"

	timestampFormat = "2006-01-02 15:04:05.000"
	nameWidth       = 10
)

var (
	registryMu   sync.RWMutex
	registry     = map[string]*logrus.Logger{}
	baseLevel    = ParseLogLevel(os.Getenv("LOG_LEVEL"))
	baseFormat   = normalizeFormat(os.Getenv("LOG_FORMAT"))
	baseOutput   = io.Writer(os.Stdout)
	levelPainter = map[logrus.Level]*color.Color{
		logrus.TraceLevel: color.New(color.FgHiBlack),
		logrus.DebugLevel: color.New(color.FgBlue),
		logrus.InfoLevel:  color.New(color.FgGreen),
		logrus.WarnLevel:  color.New(color.FgYellow),
		logrus.ErrorLevel: color.New(color.FgRed),
		logrus.FatalLevel: color.New(color.FgHiRed, color.Bold),
		logrus.PanicLevel: color.New(color.FgHiRed, color.Bold),
	}
	namePainter = color.New(color.FgCyan)
)

// ParseLogLevel maps a level name to a logrus level. Unknown names and the
// empty string map to info.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func normalizeFormat(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), FormatJSON) {
		return FormatJSON
	}
	return FormatText
}

// NewLogger returns the logger registered under name, creating it with the
// current base level, format and output on first use.
func NewLogger(name string) *logrus.Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if l, ok := registry[name]; ok {
		return l
	}
	l := logrus.New()
	l.SetLevel(baseLevel)
	l.SetOutput(baseOutput)
	l.SetFormatter(newFormatter(name, baseFormat))
	registry[name] = l
	return l
}

// RegisteredLoggers returns the names of all registered loggers, sorted.
func RegisteredLoggers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetLoggerLevel changes the level of one registered logger. It reports
// whether a logger with that name exists.
func SetLoggerLevel(name string, level string) bool {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if ok {
		l.SetLevel(ParseLogLevel(level))
	}
	return ok
}

// ConfigureLogLevel sets the level of every registered and future logger.
func ConfigureLogLevel(level string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	baseLevel = ParseLogLevel(level)
	for _, l := range registry {
		l.SetLevel(baseLevel)
	}
}

// ConfigureLogFormat switches every logger between "text" and "json".
func ConfigureLogFormat(format string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	baseFormat = normalizeFormat(format)
	for name, l := range registry {
		l.SetFormatter(newFormatter(name, baseFormat))
	}
}

// ConfigureLogOutput redirects every logger to w.
func ConfigureLogOutput(w io.Writer) {
	if w == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	baseOutput = w
	for _, l := range registry {
		l.SetOutput(w)
	}
}

func newFormatter(name, format string) logrus.Formatter {
	if format == FormatJSON {
		return &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
			DataKey:         "",
		}
	}
	return &componentFormatter{name: name}
}

// componentFormatter writes "ts LEVEL name : message key=value ..." lines.
type componentFormatter struct {
	name string
}

func (f *componentFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	level := fmt.Sprintf("%7s", strings.ToUpper(e.Level.String()))
	if p, ok := levelPainter[e.Level]; ok {
		level = p.Sprint(level)
	}
	name := f.name
	if len(name) > nameWidth {
		name = name[:nameWidth]
	}
	fmt.Fprintf(&b, "%s %s %s : %s", e.Time.Format(timestampFormat), level,
		namePainter.Sprintf("%*s", nameWidth, name), e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Since is a logging helper that rounds elapsed time for display.
func Since(start time.Time) time.Duration {
	return time.Since(start).Round(time.Microsecond)
}
