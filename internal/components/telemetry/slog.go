package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewSlogHandler creates the handler used by every gradewatch binary,
// format is either "text" or "json".
func NewSlogHandler(w io.Writer, verbose bool, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// InitSlog installs the default logger on stderr, GRADEWATCH_LOG_FORMAT=json
// switches to json output for log collectors.
func InitSlog(verbose bool) {
	handler := NewSlogHandler(os.Stderr, verbose, os.Getenv("GRADEWATCH_LOG_FORMAT"))
	slog.SetDefault(slog.New(handler))
}

// SlogAPI implements API on top of a slog.Logger, the zero value logs
// through slog.Default().
type SlogAPI struct {
	Logger *slog.Logger
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func attrs(id string, params []any) []slog.Attr {
	out := make([]slog.Attr, 0, len(params)+1)
	if id != "" {
		out = append(out, slog.String("id", id))
	}
	positional := 0
	for _, p := range params {
		switch v := p.(type) {
		case KV:
			out = append(out, slog.Any(v.Key, v.Value))
		case error:
			out = append(out, slog.String(fmt.Sprintf("err.%d", positional), v.Error()))
			positional++
		default:
			out = append(out, slog.Any(fmt.Sprintf("param.%d", positional), v))
			positional++
		}
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.logger().LogAttrs(context.Background(), slog.LevelError, "broken", attrs(id, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.logger().LogAttrs(context.Background(), slog.LevelWarn, "warning", attrs(id, params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	s.logger().LogAttrs(context.Background(), slog.LevelDebug, message, attrs("", params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.logger().LogAttrs(context.Background(), slog.LevelInfo, "count", slog.String("id", id), slog.Int64("n", count))
}
