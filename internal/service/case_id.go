package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewCaseID generates an id of the form CASE + YYYYMMDD + 6 hex characters.
func NewCaseID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "CASE" + now.UTC().Format("20060102") + suffix
}
