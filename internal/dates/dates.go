// 包 dates 把自由格式的日期字符串宽松地解析为日历日期（与区域设置无关），并格式化为 YYYY-MM-DD。
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnparseable 表示字符串无法解析为日期。
var ErrUnparseable = errors.New("unparseable date")

// QueryLayout 为远端接口 earth_date 参数的格式。
const QueryLayout = "2006-01-02"

// 先按常见写法精确匹配，未命中再交给 dateparse 兜底。
var layouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2 2006",
	"Jan 2, 2006",
	"Jan-2-2006",
	"Jan-02-2006",
	"January 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Parse 返回 raw 对应的 UTC 零点日期。
func Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparseable)
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return day(t), nil
		}
	}
	// dateparse 会把纯数字当作时间戳或年份，这类输入不算日期
	if len(s) < minFallbackLen || allDigits(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnparseable, raw, err)
	}
	return day(t), nil
}

// minFallbackLen 为兜底解析接受的最短输入，如 "1/2/20"。
const minFallbackLen = 6

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Format 返回 YYYY-MM-DD。
func Format(t time.Time) string { return t.Format(QueryLayout) }

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
