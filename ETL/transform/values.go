package transform

import (
	"math"
	"strconv"
	"strings"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

const affirmative = "sí"

// parseLeadingInt reads the leading base-10 integer of a cell ("5 tickets" is 5).
// Anything unparseable is 0.
func parseLeadingInt(value any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
			return 0
		}
		return int(math.Trunc(v))
	}

	s := strings.TrimSpace(models.StringValue(value))
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// parseOccupancy converts "80%", "80" or 80 into the ratio 0.8.
// Unparseable values are 0.
func parseOccupancy(value any) float64 {
	s := strings.TrimSpace(models.StringValue(value))
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f / 100
}

// parseValidation maps the affirmative token, in any case, to Confirmed
func parseValidation(value any) models.Validation {
	if strings.ToLower(strings.TrimSpace(models.StringValue(value))) == affirmative {
		return models.ValidationConfirmed
	}
	return models.ValidationNotConfirmed
}

// normalizeUser is the join key of a user identifier
func normalizeUser(user string) string {
	return strings.ToLower(strings.TrimSpace(user))
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
