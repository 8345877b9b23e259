package util

import (
	"time"
)

const (
	isoSecondsLayout      = "2006-01-02T15:04:05-07:00"
	isoMicrosecondsLayout = "2006-01-02T15:04:05.000000-07:00"
)

// ISOFormat renders t with its offset, adding microseconds only when the instant has a sub-second part
func ISOFormat(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(isoSecondsLayout)
	}

	return t.Format(isoMicrosecondsLayout)
}

func ServiceDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
