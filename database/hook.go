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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var silentMode atomic.Bool

// EnableBunSqlSilent mutes the query hooks of this package, e.g. while
// tables are being created.
func EnableBunSqlSilent(b bool) {
	silentMode.Store(b)
}

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

var (
	defaultOperationColor = color.New(color.FgRed)
	tagColor              = color.New(color.FgCyan)
	errorColor            = color.New(color.BgRed, color.FgWhite)
)

// QueryHook prints every executed query with its duration, colored by
// operation. With Verbose unset only failed queries are printed.
type QueryHook struct {
	Verbose bool
	Writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns a QueryHook writing to stdout.
func NewQueryHook(verbose bool) *QueryHook {
	return &QueryHook{Verbose: verbose, Writer: os.Stdout}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if silentMode.Load() {
		return
	}
	failed := event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) && !errors.Is(event.Err, sql.ErrTxDone)
	if !h.Verbose && !failed {
		return
	}
	now := time.Now()
	line := fmt.Sprintf("%s %s %12s  %s",
		now.Format("2006-01-02 15:04:05.000"),
		tagColor.Sprint("[BUN]"),
		now.Sub(event.StartTime).Round(time.Microsecond),
		colorOperation(event),
	)
	if failed {
		line += "\t" + errorColor.Sprintf(" %T: %v ", event.Err, event.Err)
	}
	w := h.Writer
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintln(w, line)
}

func colorOperation(event *bun.QueryEvent) string {
	c, ok := operationColors[event.Operation()]
	if !ok {
		c = defaultOperationColor
	}
	return c.Sprint(event.Query)
}

// SlowQueryHook logs queries that take longer than Threshold.
type SlowQueryHook struct {
	Threshold time.Duration
	Logger    Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if silentMode.Load() || event.Err != nil || h.Logger == nil || h.Threshold <= 0 {
		return
	}
	if duration := time.Since(event.StartTime); duration > h.Threshold {
		h.Logger.Warn("Database slow query detected",
			"duration", duration,
			"slow_threshold", h.Threshold,
			"query", event.Query,
		)
	}
}
