package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

// TimeOfDay is a wall-clock time stored as minutes since midnight. It maps to
// a Postgres `time` column and marshals as "HH:MM".
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	switch n, _ := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); n {
	case 2, 3:
	default:
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// TimeOfDayFrom extracts the wall-clock component of an instant.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner for Postgres `time` columns.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		*t = TimeOfDayFrom(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute()), nil
}

// Availability is a doctor's recurring weekly working window: a weekday range
// plus a time-of-day range. The weekday range may wrap across the week end
// (e.g. Friday through Monday); the time range may not cross midnight.
type Availability struct {
	FromWeekDay time.Weekday `db:"available_from_week_day" json:"available_from_week_day"`
	ToWeekDay   time.Weekday `db:"available_to_week_day" json:"available_to_week_day"`
	FromTime    TimeOfDay    `db:"available_from_time" json:"available_from_time"`
	ToTime      TimeOfDay    `db:"available_to_time" json:"available_to_time"`
}

// NewAvailability validates the window at construction. A window whose
// FromTime is not strictly before ToTime is rejected.
func NewAvailability(fromWeekDay, toWeekDay time.Weekday, fromTime, toTime TimeOfDay) (Availability, error) {
	if fromWeekDay < time.Sunday || fromWeekDay > time.Saturday {
		return Availability{}, apperrors.InvalidAvailability(fmt.Sprintf("from weekday %d out of range", fromWeekDay))
	}
	if toWeekDay < time.Sunday || toWeekDay > time.Saturday {
		return Availability{}, apperrors.InvalidAvailability(fmt.Sprintf("to weekday %d out of range", toWeekDay))
	}
	if fromTime >= toTime {
		return Availability{}, apperrors.InvalidAvailability(
			fmt.Sprintf("from time %s must be before to time %s", fromTime, toTime))
	}
	return Availability{
		FromWeekDay: fromWeekDay,
		ToWeekDay:   toWeekDay,
		FromTime:    fromTime,
		ToTime:      toTime,
	}, nil
}

// Validate re-checks an availability loaded from storage or bound from a request.
func (a Availability) Validate() error {
	_, err := NewAvailability(a.FromWeekDay, a.ToWeekDay, a.FromTime, a.ToTime)
	return err
}

func (a Availability) containsWeekday(d time.Weekday) bool {
	if a.FromWeekDay <= a.ToWeekDay {
		return d >= a.FromWeekDay && d <= a.ToWeekDay
	}
	// Window wraps across the week end, e.g. Friday through Monday.
	return d >= a.FromWeekDay || d <= a.ToWeekDay
}

// Contains reports whether the half-open interval [start, end) lies entirely
// inside the window. Intervals that cross midnight never fit because the time
// component cannot wrap.
func (a Availability) Contains(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	if !a.containsWeekday(start.Weekday()) {
		return false
	}

	startMin := int(TimeOfDayFrom(start))
	endMin := startMin + int(end.Sub(start).Minutes())
	// endMin past 24:00 means the candidate crosses midnight.
	if endMin > 24*60 {
		return false
	}
	return startMin >= int(a.FromTime) && endMin <= int(a.ToTime)
}

// Doctor belongs to exactly one clinic for its lifetime.
type Doctor struct {
	Base
	ClinicID                uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name                    string    `db:"name" json:"name"`
	Specialty               string    `db:"specialty" json:"specialty"`
	AvatarImageURL          *string   `db:"avatar_image_url" json:"avatar_image_url,omitempty"`
	AppointmentPriceInCents int       `db:"appointment_price_in_cents" json:"appointment_price_in_cents"`
	Availability
}

type CreateDoctorRequest struct {
	ClinicID                uuid.UUID `json:"clinic_id" binding:"required"`
	Name                    string    `json:"name" binding:"required,min=2,max=255"`
	Specialty               string    `json:"specialty" binding:"required"`
	AvatarImageURL          *string   `json:"avatar_image_url" binding:"omitempty,url"`
	AppointmentPriceInCents int       `json:"appointment_price_in_cents" binding:"min=0"`
	FromWeekDay             int       `json:"available_from_week_day" binding:"min=0,max=6"`
	ToWeekDay               int       `json:"available_to_week_day" binding:"min=0,max=6"`
	FromTime                TimeOfDay `json:"available_from_time"`
	ToTime                  TimeOfDay `json:"available_to_time"`
}

type UpdateDoctorRequest struct {
	Name                    *string    `json:"name" binding:"omitempty,min=2,max=255"`
	Specialty               *string    `json:"specialty"`
	AvatarImageURL          *string    `json:"avatar_image_url" binding:"omitempty,url"`
	AppointmentPriceInCents *int       `json:"appointment_price_in_cents" binding:"omitempty,min=0"`
	FromWeekDay             *int       `json:"available_from_week_day" binding:"omitempty,min=0,max=6"`
	ToWeekDay               *int       `json:"available_to_week_day" binding:"omitempty,min=0,max=6"`
	FromTime                *TimeOfDay `json:"available_from_time"`
	ToTime                  *TimeOfDay `json:"available_to_time"`
}
