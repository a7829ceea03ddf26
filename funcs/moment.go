package funcs

import (
	"strconv"
	"strings"
	"time"
)

// names holds the calendar vocabulary of one locale.
type names struct {
	months, monthsShort     [12]string
	weekdays, weekdaysShort [7]string
}

var locales = map[string]*names{
	"en": {
		months: [12]string{
			"January", "February", "March", "April", "May", "June", "July",
			"August", "September", "October", "November", "December",
		},
		monthsShort: [12]string{
			"Jan", "Feb", "Mar", "Apr", "May", "Jun",
			"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
		},
		weekdays: [7]string{
			"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
		},
		weekdaysShort: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	},
	"es": {
		months: [12]string{
			"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
			"agosto", "septiembre", "octubre", "noviembre", "diciembre",
		},
		monthsShort: [12]string{
			"ene.", "feb.", "mar.", "abr.", "may.", "jun.",
			"jul.", "ago.", "sep.", "oct.", "nov.", "dic.",
		},
		weekdays: [7]string{
			"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
		},
		weekdaysShort: [7]string{"dom.", "lun.", "mar.", "mié.", "jue.", "vie.", "sáb."},
	},
	"pt": {
		months: [12]string{
			"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho",
			"agosto", "setembro", "outubro", "novembro", "dezembro",
		},
		monthsShort: [12]string{
			"jan", "fev", "mar", "abr", "mai", "jun",
			"jul", "ago", "set", "out", "nov", "dez",
		},
		weekdays: [7]string{
			"domingo", "segunda-feira", "terça-feira", "quarta-feira",
			"quinta-feira", "sexta-feira", "sábado",
		},
		weekdaysShort: [7]string{"dom", "seg", "ter", "qua", "qui", "sex", "sáb"},
	},
	"fr": {
		months: [12]string{
			"janvier", "février", "mars", "avril", "mai", "juin", "juillet",
			"août", "septembre", "octobre", "novembre", "décembre",
		},
		monthsShort: [12]string{
			"janv.", "févr.", "mars", "avr.", "mai", "juin",
			"juil.", "août", "sept.", "oct.", "nov.", "déc.",
		},
		weekdays: [7]string{
			"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi",
		},
		weekdaysShort: [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
	},
	"de": {
		months: [12]string{
			"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli",
			"August", "September", "Oktober", "November", "Dezember",
		},
		monthsShort: [12]string{
			"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni",
			"Juli", "Aug.", "Sep.", "Okt.", "Nov.", "Dez.",
		},
		weekdays: [7]string{
			"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag",
		},
		weekdaysShort: [7]string{"So.", "Mo.", "Di.", "Mi.", "Do.", "Fr.", "Sa."},
	},
}

// locale resolves tags such as "pt-BR" or "de_DE" by their language.
func locale(tag string) (*names, bool) {
	if tag == "" {
		return locales["en"], true
	}

	lang, _, _ := strings.Cut(strings.ToLower(tag), "-")
	lang, _, _ = strings.Cut(lang, "_")

	n, ok := locales[lang]

	return n, ok
}

// momentTokens lists format tokens longest first so that prefixes never
// shadow longer tokens.
var momentTokens = []string{
	"YYYY", "MMMM", "dddd", "SSS",
	"MMM", "ddd",
	"YY", "MM", "DD", "dd", "HH", "hh", "mm", "ss", "ZZ",
	"M", "D", "d", "H", "h", "m", "s", "A", "a", "Z", "X", "x", "Q",
}

// formatMoment renders t using moment-style tokens. Text inside square
// brackets is copied verbatim.
func formatMoment(t time.Time, layout string, n *names) string {
	var b strings.Builder

	for i := 0; i < len(layout); {
		if layout[i] == '[' {
			if end := strings.IndexByte(layout[i:], ']'); end > 0 {
				b.WriteString(layout[i+1 : i+end])
				i += end + 1

				continue
			}
		}

		tok := ""
		for _, candidate := range momentTokens {
			if strings.HasPrefix(layout[i:], candidate) {
				tok = candidate

				break
			}
		}

		if tok == "" {
			b.WriteByte(layout[i])
			i++

			continue
		}

		b.WriteString(momentToken(t, tok, n))
		i += len(tok)
	}

	return b.String()
}

func twoDigits(v int) string {
	if v < 10 && v >= 0 {
		return "0" + strconv.Itoa(v)
	}

	return strconv.Itoa(v)
}

func momentToken(t time.Time, tok string, n *names) string {
	hour12 := t.Hour() % 12
	if hour12 == 0 {
		hour12 = 12
	}

	switch tok {
	case "YYYY":
		return strconv.Itoa(t.Year())
	case "YY":
		return twoDigits(t.Year() % 100)
	case "Q":
		return strconv.Itoa((int(t.Month())-1)/3 + 1)
	case "MMMM":
		return n.months[t.Month()-1]
	case "MMM":
		return n.monthsShort[t.Month()-1]
	case "MM":
		return twoDigits(int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "DD":
		return twoDigits(t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "dddd":
		return n.weekdays[t.Weekday()]
	case "ddd":
		return n.weekdaysShort[t.Weekday()]
	case "dd":
		r := []rune(strings.TrimSuffix(n.weekdaysShort[t.Weekday()], "."))

		return string(r[:min(2, len(r))])
	case "d":
		return strconv.Itoa(int(t.Weekday()))
	case "HH":
		return twoDigits(t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return twoDigits(hour12)
	case "h":
		return strconv.Itoa(hour12)
	case "mm":
		return twoDigits(t.Minute())
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return twoDigits(t.Second())
	case "s":
		return strconv.Itoa(t.Second())
	case "SSS":
		return t.Format(".000")[1:]
	case "A":
		return t.Format("PM")
	case "a":
		return strings.ToLower(t.Format("PM"))
	case "Z":
		return t.Format("-07:00")
	case "ZZ":
		return t.Format("-0700")
	case "X":
		return strconv.FormatInt(t.Unix(), 10)
	case "x":
		return strconv.FormatInt(t.UnixMilli(), 10)
	}

	return tok
}
