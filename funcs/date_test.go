package funcs

import (
	"testing"
	"time"
)

func TestDates(t *testing.T) {
	t.Parallel()

	runEvalCases(t, []evalCase{
		{"now in default format", "@GETDATE()", nil, "2024-02-10T15:04:05+00:00"},
		{"spanish long date", "@GETDATE('', 'dddd, D MMMM YYYY', es)", nil, "sábado, 10 febrero 2024"},
		{"portuguese month", "@GETDATE('', 'D [de] MMMM', 'pt-BR')", nil, "10 de fevereiro"},
		{"german short weekday", "@GETDATE('', 'dd', de)", nil, "Sa"},
		{"add days", "@GETDATE('', 'YYYY-MM-DD HH:mm', '', days, 1)", nil, "2024-02-11 15:04"},
		{"add years", "@GETDATE('', 'YYYY', '', years, 2)", nil, "2026"},
		{"add hours short unit", "@GETDATE('', 'HH', '', h, 10)", nil, "01"},
		{"month end clamps", "@GETDATE('2024-01-31', 'YYYY-MM-DD', en, months, 1)", nil, "2024-02-29"},
		{
			"french twelve hour clock",
			"@DATEFORMAT('2024-02-10T15:04:05Z', 'hh:mm A [on] ddd', fr)",
			nil,
			"03:04 PM on sam.",
		},
		{"milliseconds", "@DATEFORMAT('2024-02-10T15:04:05.123Z', 'SSS')", nil, "123"},
		{"unix seconds from millis", "@DATEFORMAT(1000, X)", nil, "1"},
		{"quarter and weekday number", "@DATEFORMAT('2024-03-05', 'Q YY M D d')", nil, "1 24 3 5 2"},
		{"lowercase meridiem", "@DATEFORMAT('2024-03-05 09:30:00', 'h:mm a')", nil, "9:30 am"},
		{"last day leap february", "@LASTDAY('2024-02-10')", nil, "2024-02-29"},
		{"last day with format", "@LASTDAY('2023-12-15', 'D MMMM')", nil, "31 December"},
		{"strftime now", "@STRFTIME('%Y/%m/%d')", nil, "2024/02/10"},
		{"strftime date", "@STRFTIME('%H:%M', '2024-01-02T03:04:05Z')", nil, "03:04"},
	})
}

func TestDates_Errors(t *testing.T) {
	expectError(t, "@DATEFORMAT('', '', xx)", nil, ErrArgument)
	expectError(t, "@DATEFORMAT(garbage)", nil, ErrArgument)
	expectError(t, "@GETDATE('', '', '', fortnights, 1)", nil, ErrArgument)
}

func TestFormatMoment(t *testing.T) {
	ts := time.Date(2009, 11, 7, 0, 5, 9, 0, time.FixedZone("", -5*60*60))

	tests := []struct {
		layout string
		want   string
	}{
		{"YYYY-MM-DDTHH:mm:ssZ", "2009-11-07T00:05:09-05:00"},
		{"ZZ", "-0500"},
		{"hh A", "12 AM"},
		{"MMM", "Nov"},
		{"[YYYY] YYYY", "YYYY 2009"},
		{"[", "["},
	}

	for _, tt := range tests {
		if got := formatMoment(ts, tt.layout, locales["en"]); got != tt.want {
			t.Errorf("formatMoment(%q) = %q, want %q", tt.layout, got, tt.want)
		}
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-02-29", 12, "2025-02-28"},
		{"2024-05-15", 3, "2024-08-15"},
	}

	for _, tt := range tests {
		from, _ := time.Parse(time.DateOnly, tt.from)

		if got := addMonths(from, tt.n).Format(time.DateOnly); got != tt.want {
			t.Errorf("addMonths(%s, %d) = %s, want %s", tt.from, tt.n, got, tt.want)
		}
	}
}
