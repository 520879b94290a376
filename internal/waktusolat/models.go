package waktusolat

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Malaysia observes UTC+8 all year without daylight saving.
var malaysiaTime = time.FixedZone("MYT", 8*60*60)

// Location returns the time zone prayer times are expressed in.
func Location() *time.Location {
	return malaysiaTime
}

var zoneCodePattern = regexp.MustCompile(`^[A-Z]{3}\d{2}$`)

// ValidZoneCode reports whether code looks like a JAKIM zone code (e.g. SGR01).
func ValidZoneCode(code string) bool {
	return zoneCodePattern.MatchString(code)
}

// Zone is a JAKIM prayer-time zone.
type Zone struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// PrayerTimes holds one day of the schedule. Times are HH:MM in Malaysia time.
type PrayerTimes struct {
	Date    string `json:"date"`
	Day     string `json:"day"`
	Hijri   string `json:"hijri,omitempty"`
	Imsak   string `json:"imsak,omitempty"`
	Fajr    string `json:"fajr"`
	Syuruk  string `json:"syuruk"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

// Named pairs a display name with its time of day.
type Named struct {
	Name string
	Time string
}

// Sequence returns the day's times in chronological order, skipping an absent Imsak.
func (p PrayerTimes) Sequence() []Named {
	seq := make([]Named, 0, 7)
	if p.Imsak != "" {
		seq = append(seq, Named{"Imsak", p.Imsak})
	}
	return append(seq,
		Named{"Fajr", p.Fajr},
		Named{"Syuruk", p.Syuruk},
		Named{"Dhuhr", p.Dhuhr},
		Named{"Asr", p.Asr},
		Named{"Maghrib", p.Maghrib},
		Named{"Isha", p.Isha},
	)
}

// Schedule is a month of prayer times for one zone.
type Schedule struct {
	Zone        string        `json:"zone"`
	Year        int           `json:"year,omitempty"`
	Month       string        `json:"month,omitempty"`
	LastUpdated string        `json:"last_updated,omitempty"`
	Prayers     []PrayerTimes `json:"prayers"`
}

// Day returns the entry for date (YYYY-MM-DD).
func (s Schedule) Day(date string) (PrayerTimes, bool) {
	for _, p := range s.Prayers {
		if p.Date == date {
			return p, true
		}
	}
	return PrayerTimes{}, false
}

// Pick finds the entry for the day of t: the exact date, else the same day of
// the month, else the first day. ok is false only for an empty schedule.
func (s Schedule) Pick(t time.Time) (PrayerTimes, bool) {
	if len(s.Prayers) == 0 {
		return PrayerTimes{}, false
	}
	t = t.In(malaysiaTime)
	if p, ok := s.Day(t.Format(dateLayout)); ok {
		return p, true
	}
	suffix := fmt.Sprintf("-%02d", t.Day())
	for _, p := range s.Prayers {
		if strings.HasSuffix(p.Date, suffix) {
			return p, true
		}
	}
	return s.Prayers[0], true
}

// CurrentPrayer is the prayer in effect at a moment and the one that follows.
type CurrentPrayer struct {
	Zone       string `json:"zone,omitempty"`
	Date       string `json:"date,omitempty"`
	Prayer     string `json:"prayer"`
	Time       string `json:"time,omitempty"`
	NextPrayer string `json:"next_prayer"`
	NextTime   string `json:"next_time,omitempty"`
}
