package transform

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

const (
	isoDate = "2006-01-02"

	// serialUnixEpoch is the spreadsheet serial of 1970-01-01
	serialUnixEpoch = 25569
	// maxSerialDays keeps serials within years 0001-9999
	maxSerialDays = 2958465
)

// genericLayouts are tried in order for strings without a recognizable
// three-part date component
var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"Mon Jan 02 2006",
	"Mon Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02.01.2006",
	"2006.01.02",
}

// NormalizeDate converts a spreadsheet date value into YYYY-MM-DD.
// Unparseable input yields models.InvalidDate; it never fails.
func NormalizeDate(value any) string {
	switch v := value.(type) {
	case nil:
		return models.InvalidDate
	case time.Time:
		if v.IsZero() {
			return models.InvalidDate
		}
		return formatDate(v.UTC())
	case float64:
		return fromSerial(v)
	case float32:
		return fromSerial(float64(v))
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case int32:
		return fromSerial(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return models.InvalidDate
		}
		return fromSerial(f)
	case string:
		return fromString(v)
	case bool:
		return models.InvalidDate
	default:
		return fromString(models.StringValue(v))
	}
}

// fromSerial reproduces the spreadsheet serial encoding: whole days since
// 1899-12-30 with the fraction as time of day, rounded to the millisecond.
func fromSerial(serial float64) string {
	if serial == 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return models.InvalidDate
	}
	days := serial - serialUnixEpoch
	if math.Abs(days) > maxSerialDays {
		return models.InvalidDate
	}
	ms := math.Round(days * 86400 * 1000)
	return formatDate(time.UnixMilli(int64(ms)).UTC())
}

func fromString(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.InvalidDate
	}
	if strings.ContainsAny(s, "/-") {
		if date, ok := fromParts(s); ok {
			return date
		}
	}
	return fromLayouts(s)
}

// fromParts handles D/M/Y and Y-M-D forms, with an optional time suffix
func fromParts(s string) (string, bool) {
	datePart := s
	if i := strings.IndexByte(datePart, ' '); i > 0 {
		datePart = datePart[:i]
	}
	if i := strings.IndexByte(datePart, 'T'); i > 0 {
		datePart = datePart[:i]
	}

	parts := strings.Split(strings.ReplaceAll(datePart, "/", "-"), "-")
	if len(parts) != 3 {
		return "", false
	}
	for _, p := range parts {
		if !isDigits(p) {
			return "", false
		}
	}

	switch {
	case len(parts[0]) == 4:
		return buildDate(parts[0], parts[1], parts[2]), true
	case len(parts[2]) == 4:
		return buildDate(parts[2], parts[1], parts[0]), true
	}
	return "", false
}

// buildDate constructs the date at noon UTC and rejects overflowing components
func buildDate(year, month, day string) string {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return models.InvalidDate
	}
	if y < 1 || m < 1 || m > 12 || d < 1 {
		return models.InvalidDate
	}
	t := time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return models.InvalidDate
	}
	return formatDate(t)
}

func fromLayouts(s string) string {
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatDate(t.UTC())
		}
	}
	return models.InvalidDate
}

func formatDate(t time.Time) string {
	if t.Year() < 1 || t.Year() > 9999 {
		return models.InvalidDate
	}
	return t.Format(isoDate)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
