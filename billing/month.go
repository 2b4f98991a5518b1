package billing

import (
	"encoding/json"
	"fmt"
	"time"
)

// Month is a billing month. Its JSON form is "YYYY-MM".
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// FirstDay returns midnight of the first day of the month in loc.
func (m Month) FirstDay(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(m.FirstDay(time.UTC).AddDate(0, 1, 0))
}

func (m Month) Prev() Month {
	return MonthOf(m.FirstDay(time.UTC).AddDate(0, -1, 0))
}

// DueDate is the first day after the billing month plus (dueDay - 1) days.
// A due day below 1 is treated as 1.
func (m Month) DueDate(dueDay int, loc *time.Location) time.Time {
	if dueDay < 1 {
		dueDay = 1
	}
	return m.Next().FirstDay(loc).AddDate(0, 0, dueDay-1)
}

func (m Month) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
