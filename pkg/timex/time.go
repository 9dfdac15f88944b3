// Package timex wraps time.Time for database columns and JSON payloads.
package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout is the text form used in JSON payloads
// Layout JSON 中使用的时间格式
const Layout = "2006-01-02 15:04:05"

// Time is a time.Time that scans from and writes to SQL columns and marshals as Layout
// Time 可直接作为数据库字段，JSON 输出为 Layout 格式
type Time time.Time

// Now returns the current local time
func Now() Time {
	return Time(time.Now())
}

func (t Time) Time() time.Time {
	return time.Time(t)
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) String() string {
	return time.Time(t).Format(Layout)
}

// MarshalJSON 输出 Layout 格式，零值输出空字符串
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON 解析 Layout 格式
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*t = Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(`"`+Layout+`"`, s, time.Local)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

// Value implements driver.Valuer
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan implements sql.Scanner
func (t *Time) Scan(v interface{}) error {
	switch value := v.(type) {
	case nil:
		*t = Time{}
	case time.Time:
		*t = Time(value)
	case string:
		parsed, err := parse(value)
		if err != nil {
			return err
		}
		*t = Time(parsed)
	case []byte:
		parsed, err := parse(string(value))
		if err != nil {
			return err
		}
		*t = Time(parsed)
	default:
		return fmt.Errorf("timex: cannot scan %T into Time", v)
	}
	return nil
}

// scanLayouts 驱动可能返回的文本格式
var scanLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	Layout,
}

func parse(s string) (time.Time, error) {
	var err error
	for _, layout := range scanLayouts {
		var parsed time.Time
		if parsed, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, err
}
