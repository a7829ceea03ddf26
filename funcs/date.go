package funcs

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/ardnew/atexpr/lang"
)

// DefaultDateFormat is the moment-style layout used when no format is given.
const DefaultDateFormat = "YYYY-MM-DDTHH:mm:ssZ"

// dateLayouts are tried in order when parsing date text.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
	time.RFC1123Z,
	time.RFC1123,
}

// parseDate resolves v to a time. Empty values mean now and numbers are
// Unix milliseconds.
func (c *config) parseDate(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case nil:
		return c.now(), nil
	}

	s := strings.TrimSpace(lang.Stringify(v))
	if s == "" {
		return c.now(), nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, ErrArgument.Detail("unrecognized date " + strconv.Quote(s)).
		With(slog.String("date", s))
}

// shift adds amount units of period to t.
func shift(t time.Time, period string, amount int) (time.Time, error) {
	unit := period
	if len(unit) > 1 {
		unit = strings.ToLower(unit)
		if unit != "ms" {
			unit = strings.TrimSuffix(unit, "s")
		}
	}

	switch unit {
	case "y", "year":
		return addMonths(t, 12*amount), nil
	case "Q", "quarter":
		return addMonths(t, 3*amount), nil
	case "M", "month":
		return addMonths(t, amount), nil
	case "w", "week":
		return t.AddDate(0, 0, 7*amount), nil
	case "d", "day":
		return t.AddDate(0, 0, amount), nil
	case "h", "hour":
		return t.Add(time.Duration(amount) * time.Hour), nil
	case "m", "minute":
		return t.Add(time.Duration(amount) * time.Minute), nil
	case "s", "second":
		return t.Add(time.Duration(amount) * time.Second), nil
	case "ms", "millisecond":
		return t.Add(time.Duration(amount) * time.Millisecond), nil
	}

	return t, ErrArgument.Detail("unknown period " + strconv.Quote(period))
}

// addMonths moves t by n calendar months, clamping the day to the end of
// the target month.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).
		AddDate(0, n, 0)

	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()

	return first.AddDate(0, 0, min(t.Day(), last)-1)
}

// render formats t with a moment layout in the given locale.
func render(t time.Time, layout, tag string) (string, error) {
	n, ok := locale(tag)
	if !ok {
		return "", ErrArgument.Detail("unsupported locale " + strconv.Quote(tag))
	}

	if layout == "" {
		layout = DefaultDateFormat
	}

	return formatMoment(t, layout, n), nil
}

func dateFuncs(c *config) []*lang.Func {
	return []*lang.Func{
		{
			Name:  "getdate",
			Usage: "GETDATE([date=now], [format], [locale=en], [period, amount])",
			Call: func(_ context.Context, args []any) (any, error) {
				t, err := c.parseDate(arg(args, 0))
				if err != nil {
					return nil, err
				}

				if period := text(args, 3); period != "" {
					amount, err := intAt(args, 4, 0)
					if err != nil {
						return nil, err
					}

					if t, err = shift(t, period, amount); err != nil {
						return nil, err
					}
				}

				return render(t, text(args, 1), text(args, 2))
			},
		},
		{
			Name:  "dateformat",
			Usage: "DATEFORMAT(date, [format], [locale=en])",
			Call: func(_ context.Context, args []any) (any, error) {
				t, err := c.parseDate(arg(args, 0))
				if err != nil {
					return nil, err
				}

				return render(t, text(args, 1), text(args, 2))
			},
		},
		{
			Name:  "lastday",
			Usage: "LASTDAY([date=now], [format]) returns the last day of the month",
			Call: func(_ context.Context, args []any) (any, error) {
				t, err := c.parseDate(arg(args, 0))
				if err != nil {
					return nil, err
				}

				last := time.Date(t.Year(), t.Month()+1, 0,
					t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

				return render(last, textOr(args, 1, "YYYY-MM-DD"), "")
			},
		},
		{
			Name:  "strftime",
			Usage: "STRFTIME(format, [date=now]) formats with C strftime directives",
			Call: func(_ context.Context, args []any) (any, error) {
				t, err := c.parseDate(arg(args, 1))
				if err != nil {
					return nil, err
				}

				return strftime.Format(text(args, 0), t), nil
			},
		},
	}
}
