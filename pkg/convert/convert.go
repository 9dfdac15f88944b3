// Package convert parses loosely typed request and config values.
package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// StrTo converts query and config strings. The Must variants return zero values on bad input.
type StrTo string

func (s StrTo) String() string {
	return string(s)
}

func (s StrTo) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(s.String()))
}

func (s StrTo) MustInt() int {
	v, _ := s.Int()
	return v
}

// sizeUnits longest suffix first so "MB" wins over "B"
var sizeUnits = []struct {
	suffix string
	mult   int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"G", 1 << 30},
	{"M", 1 << 20},
	{"K", 1 << 10},
	{"B", 1},
}

// ToSize parses byte sizes such as "1MB", "512k" or "42". Empty means 0.
// ToSize 解析字节大小，支持 B / K(B) / M(B) / G(B)，不区分大小写
func (s StrTo) ToSize() (int64, error) {
	str := strings.ToUpper(strings.TrimSpace(s.String()))
	if str == "" {
		return 0, nil
	}

	mult := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(str, u.suffix) {
			mult = u.mult
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))
			break
		}
	}

	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s.String(), err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: negative", s.String())
	}
	return n * mult, nil
}

// MustToSize 解析失败或结果不为正时返回 defaultVal
func (s StrTo) MustToSize(defaultVal int64) int64 {
	v, err := s.ToSize()
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}
