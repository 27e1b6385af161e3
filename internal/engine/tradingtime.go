package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/simtrade/internal/domain"
)

// Exchange local time. Quote datetimes carry no zone.
var cst = time.FixedZone("CST", 8*3600)

const (
	datetimeLayout = "2006-01-02 15:04:05"
	secondsPerDay  = 24 * 3600
)

// parseDatetime parses a quote datetime such as "2020-11-30 21:05:00.000000".
// Fractional seconds are optional.
func parseDatetime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(datetimeLayout, s, cst)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// datetimeNanos converts a quote datetime to ns since epoch, or 0 when
// unparseable.
func datetimeNanos(s string) int64 {
	t, ok := parseDatetime(s)
	if !ok {
		return 0
	}
	return t.UnixNano()
}

// parseClock parses "HH:MM:SS" into seconds since midnight. Hours may exceed
// 23 for night sessions that end after midnight.
func parseClock(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	total := 0
	for i, mul := range []int{3600, 60, 1} {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, false
		}
		total += n * mul
	}
	return total, true
}

// inTradingTime reports whether datetime falls inside one of the day or
// night sessions of tt. An instrument without sessions is always tradable, as
// is any instrument before the first quote datetime is known.
func inTradingTime(tt domain.TradingTime, datetime string) bool {
	if tt.Empty() {
		return true
	}
	t, ok := parseDatetime(datetime)
	if !ok {
		return true
	}
	sec := t.Hour()*3600 + t.Minute()*60 + t.Second()

	sessions := make([][]string, 0, len(tt.Day)+len(tt.Night))
	sessions = append(sessions, tt.Day...)
	sessions = append(sessions, tt.Night...)
	for _, period := range sessions {
		if len(period) != 2 {
			continue
		}
		start, ok1 := parseClock(period[0])
		end, ok2 := parseClock(period[1])
		if !ok1 || !ok2 {
			continue
		}
		// Night sessions ending past 24:00:00 cover the early hours of the
		// next calendar day.
		if (start <= sec && sec < end) || (start <= sec+secondsPerDay && sec+secondsPerDay < end) {
			return true
		}
	}
	return false
}

// tradingDay derives the trading day (YYYYMMDD) a datetime belongs to. From
// 18:00 on, the night session counts toward the next business day.
func tradingDay(datetime string) string {
	t, ok := parseDatetime(datetime)
	if !ok {
		return ""
	}
	if t.Hour() >= 18 {
		t = t.AddDate(0, 0, 1)
	}
	switch t.Weekday() {
	case time.Saturday:
		t = t.AddDate(0, 0, 2)
	case time.Sunday:
		t = t.AddDate(0, 0, 1)
	}
	return t.Format("20060102")
}
