package recurring

import (
	"fmt"
	"time"

	"github.com/rpggio/probill/internal/domain/errkind"
)

const periodLayout = "2006-01"

// ErrInvalidPeriodKey indicates a period key not in YYYY-MM form.
var ErrInvalidPeriodKey = errkind.New(errkind.ErrInvalidInput, "period key must be YYYY-MM")

// Cursor records the last billed period of a recurring project service. It
// is the only record of which periods were already billed.
type Cursor struct {
	ProjectServiceID       string    `json:"project_service_id"`
	BusinessID             string    `json:"business_id"`
	LastGeneratedPeriodKey string    `json:"last_generated_period_key"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// PeriodKey returns the calendar month of t as YYYY-MM, in UTC.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(periodLayout)
}

// ParsePeriodKey validates a YYYY-MM key and returns the first instant of
// that month in UTC.
func ParsePeriodKey(key string) (time.Time, error) {
	t, err := time.Parse(periodLayout, key)
	if err != nil || t.Format(periodLayout) != key {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, key)
	}
	return t, nil
}
