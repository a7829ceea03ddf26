package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/fatih/color"
)

// palette holds the colors used by the pretty handlers.
type palette struct {
	key, str, num, yes, no, dur, tim, null *color.Color
	levels                                 map[slog.Level]*color.Color
}

func newPalette(enable bool) palette {
	p := palette{
		key:  color.New(color.FgHiBlack),
		str:  color.New(color.FgCyan),
		num:  color.New(color.FgYellow),
		yes:  color.New(color.FgGreen),
		no:   color.New(color.FgRed),
		dur:  color.New(color.FgMagenta),
		tim:  color.New(color.FgBlue),
		null: color.New(color.FgHiBlack),
		levels: map[slog.Level]*color.Color{
			slog.LevelError: color.New(color.FgRed, color.Bold),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelInfo:  color.New(color.FgGreen),
			slog.LevelDebug: color.New(color.FgBlue),
		},
	}

	all := []*color.Color{p.key, p.str, p.num, p.yes, p.no, p.dur, p.tim, p.null}
	for _, c := range p.levels {
		all = append(all, c)
	}

	for _, c := range all {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

func (p palette) level(l slog.Level) *color.Color {
	switch {
	case l >= slog.LevelError:
		return p.levels[slog.LevelError]
	case l >= slog.LevelWarn:
		return p.levels[slog.LevelWarn]
	case l >= slog.LevelInfo:
		return p.levels[slog.LevelInfo]
	default:
		return p.levels[slog.LevelDebug]
	}
}

// value renders v using the color that matches its kind.
func (p palette) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return p.str.Sprint(v.String())
	case slog.KindInt64:
		return p.num.Sprint(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Sprint(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Sprint(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Sprint("true")
		}

		return p.no.Sprint("false")
	case slog.KindDuration:
		return p.dur.Sprint(v.Duration().String())
	case slog.KindTime:
		return p.tim.Sprint(v.Time().String())
	case slog.KindAny:
		if v.Any() == nil {
			return p.null.Sprint("null")
		}

		return p.str.Sprint(fmt.Sprint(v.Any()))
	default:
		return p.str.Sprint(v.String())
	}
}

// prettyHandler carries the state shared by the text and JSON renderers.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	colors palette
	attrs  []slog.Attr
	groups []string
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// fields flattens the record into the ordered list of attributes to render,
// applying ReplaceAttr the same way the builtin handlers do.
func (h *prettyHandler) fields(r slog.Record) []slog.Attr {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	add := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
			a = h.opts.ReplaceAttr(h.groups, a)
		}

		if a.Equal(slog.Attr{}) {
			return
		}

		a.Value = a.Value.Resolve()
		if a.Value.Kind() == slog.KindGroup {
			for _, g := range a.Value.Group() {
				g.Key = a.Key + "." + g.Key
				fields = append(fields, g)
			}

			return
		}

		fields = append(fields, a)
	}

	if !r.Time.IsZero() {
		add(slog.Time(slog.TimeKey, r.Time))
	}

	add(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			add(slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	add(slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		add(a)
	}

	r.Attrs(func(a slog.Attr) bool {
		add(a)

		return true
	})

	return fields
}

func (h *prettyHandler) write(buf *bytes.Buffer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf.WriteByte('\n')

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) render(key string, level slog.Level, v slog.Value) string {
	if key == slog.LevelKey {
		return h.colors.level(level).Sprint(v.String())
	}

	return h.colors.value(v)
}

func (h *prettyHandler) derive() *prettyHandler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	c.groups = append([]string(nil), h.groups...)

	return &c
}

// prettyTextHandler writes one colorized key=value line per record.
type prettyTextHandler struct{ *prettyHandler }

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	colorize bool,
) *prettyTextHandler {
	return &prettyTextHandler{&prettyHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		colors: newPalette(colorize),
	}}
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	for i, a := range h.fields(r) {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.colors.key.Sprint(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.render(a.Key, r.Level, a.Value))
	}

	return h.write(buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.derive()
	c.attrs = append(c.attrs, attrs...)

	return &prettyTextHandler{c}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	c := h.derive()
	c.groups = append(c.groups, name)

	return &prettyTextHandler{c}
}

// prettyJSONHandler writes one indented, colorized object per record.
type prettyJSONHandler struct{ *prettyHandler }

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	colorize bool,
) *prettyJSONHandler {
	return &prettyJSONHandler{&prettyHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		colors: newPalette(colorize),
	}}
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	buf.WriteString("{\n")

	for i, a := range h.fields(r) {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(h.colors.key.Sprint(a.Key))
		buf.WriteString(": ")
		buf.WriteString(h.render(a.Key, r.Level, a.Value))
	}

	buf.WriteString("\n}")

	return h.write(buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.derive()
	c.attrs = append(c.attrs, attrs...)

	return &prettyJSONHandler{c}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	c := h.derive()
	c.groups = append(c.groups, name)

	return &prettyJSONHandler{c}
}
