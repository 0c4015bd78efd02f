// Package localtime pins the hotel's civil calendar. Checked-room records are
// bucketed by the calendar date in Yekaterinburg (fixed UTC+5, no DST), and
// that conversion happens here and nowhere else.
package localtime

import "time"

// Zone is the deployment's fixed local timezone.
var Zone = time.FixedZone("UTC+5", 5*60*60)

// DateKey returns the civil date of a unix-seconds timestamp as YYYY-MM-DD.
func DateKey(unixSec int64) string {
	return time.Unix(unixSec, 0).In(Zone).Format("2006-01-02")
}

// TodayKey returns the civil date of now as YYYY-MM-DD.
func TodayKey(now time.Time) string {
	return now.In(Zone).Format("2006-01-02")
}

// ClockTime returns the local HH:MM of a unix-seconds timestamp.
func ClockTime(unixSec int64) string {
	return time.Unix(unixSec, 0).In(Zone).Format("15:04")
}
