package transform

import (
	"strings"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

var (
	studentKeywords = []string{"alumno", "estudiante", "student"}
	staffKeywords   = []string{"colaborador", "staff"}
)

// NormalizeUserType classifies a free-text role label. Student keywords are
// checked before staff keywords.
func NormalizeUserType(value any) models.UserType {
	label := strings.ToLower(strings.TrimSpace(models.StringValue(value)))
	if label == "" {
		return models.UserTypeUnknown
	}
	if containsAny(label, studentKeywords) {
		return models.UserTypeStudent
	}
	if containsAny(label, staffKeywords) {
		return models.UserTypeStaff
	}
	return models.UserTypeUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
