package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"
)

const masked = "***"

// DefaultMaskFields are masked even when the configuration lists none.
var DefaultMaskFields = []string{"secret", "password", "data"}

// otpauth URIs carry the shared secret in the query string, so any string
// that contains one is redacted down to its scheme.
var otpauthURI = regexp.MustCompile(`otpauth(-migration)?://[^\s"']*`)

// LogFormat selects the console encoding.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// ParseLevel maps debug, info, warn and error onto slog levels. Anything else
// is warn.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelWarn
	}
	return l
}

type logOptions struct {
	w           io.Writer
	level       slog.Level
	format      LogFormat
	serviceName string
	maskFields  []string
}

func newHandler(opts logOptions, lp *sdklog.LoggerProvider) slog.Handler {
	hopts := &slog.HandlerOptions{
		Level:       opts.level,
		AddSource:   opts.level <= slog.LevelDebug,
		ReplaceAttr: replaceAttr,
	}

	var console slog.Handler
	if opts.format == LogFormatJSON {
		console = slog.NewJSONHandler(opts.w, hopts)
	} else {
		console = slog.NewTextHandler(opts.w, hopts)
	}

	var handler slog.Handler = console
	if lp != nil {
		handler = teeHandler{console, otelslog.NewHandler(opts.serviceName, otelslog.WithLoggerProvider(lp))}
	}

	return &contextHandler{
		Handler: &maskHandler{
			handler:  handler,
			maskKeys: buildMaskKeys(slices.Concat(opts.maskFields, DefaultMaskFields)),
		},
		serviceName: opts.serviceName,
	}
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("%s:%d", filepath.Join("internal", rel), src.Line))
	}
	return a
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	r.AddAttrs(slog.String("service", h.serviceName))

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), serviceName: h.serviceName}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), serviceName: h.serviceName}
}

// teeHandler sends each record to every handler that accepts its level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return lo.ContainsBy(t, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler(lo.Map(t, func(h slog.Handler, _ int) slog.Handler { return h.WithAttrs(attrs) }))
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler(lo.Map(t, func(h slog.Handler, _ int) slog.Handler { return h.WithGroup(name) }))
}

type maskHandler struct {
	handler  slog.Handler
	maskKeys map[string]struct{}
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, redactURIs(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(maskAttr(attr, h.maskKeys))
		return true
	})

	return h.handler.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	attrs = lo.Map(attrs, func(a slog.Attr, _ int) slog.Attr { return maskAttr(a, h.maskKeys) })
	return &maskHandler{handler: h.handler.WithAttrs(attrs), maskKeys: h.maskKeys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{handler: h.handler.WithGroup(name), maskKeys: h.maskKeys}
}

func buildMaskKeys(fields []string) map[string]struct{} {
	keys := lo.Compact(lo.Map(fields, func(f string, _ int) string {
		return strings.ToLower(strings.TrimSpace(f))
	}))
	return lo.SliceToMap(keys, func(k string) (string, struct{}) { return k, struct{}{} })
}

func redactURIs(s string) string {
	if !strings.Contains(s, "otpauth") {
		return s
	}
	return otpauthURI.ReplaceAllStringFunc(s, func(m string) string {
		scheme, _, _ := strings.Cut(m, "://")
		return scheme + "://" + masked
	})
}

func maskAttr(attr slog.Attr, maskKeys map[string]struct{}) slog.Attr {
	if _, found := maskKeys[strings.ToLower(attr.Key)]; found {
		return slog.String(attr.Key, masked)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		attr.Value = slog.GroupValue(lo.Map(group, func(ga slog.Attr, _ int) slog.Attr { return maskAttr(ga, maskKeys) })...)
	case slog.KindString:
		s := attr.Value.String()
		if out, ok := maskJSON([]byte(s), maskKeys); ok {
			s = out
		}
		attr.Value = slog.StringValue(redactURIs(s))
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any, []any:
			attr.Value = slog.AnyValue(maskData(v, maskKeys))
		case map[string]string:
			attr.Value = slog.AnyValue(maskData(lo.MapValues(v, func(s string, _ string) any { return s }), maskKeys))
		case []byte:
			if out, ok := maskJSON(v, maskKeys); ok {
				attr.Value = slog.StringValue(out)
			}
		case error:
			attr.Value = slog.StringValue(redactURIs(v.Error()))
		}
	}

	return attr
}

func maskJSON(payload []byte, maskKeys map[string]struct{}) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}
	out, err := json.Marshal(maskData(body, maskKeys))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func maskData(v any, maskKeys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		return lo.MapEntries(val, func(k string, v2 any) (string, any) {
			if _, found := maskKeys[strings.ToLower(k)]; found {
				return k, masked
			}
			return k, maskData(v2, maskKeys)
		})
	case []any:
		return lo.Map(val, func(v2 any, _ int) any { return maskData(v2, maskKeys) })
	case string:
		return redactURIs(val)
	default:
		return v
	}
}
