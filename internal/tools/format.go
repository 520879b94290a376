package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/waktusolat"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// dayRequest describes one day of prayer times to fetch and render.
type dayRequest struct {
	zone   string
	label  string // extra heading line, e.g. the resolved zone
	date   string
	format string
}

// prayerTimesForDay fetches the month that holds the requested day and renders
// that day's times as text, or the whole month as JSON.
func prayerTimesForDay(ctx context.Context, up Upstream, now time.Time, req dayRequest) (protocol.CallResult, *protocol.ResponseError) {
	day, exact, rerr := requestedDate(req.date, now)
	if rerr != nil {
		return protocol.CallResult{}, rerr
	}

	sched, err := up.PrayerTimes(ctx, req.zone, day)
	if err != nil {
		return protocol.CallResult{}, fromUpstream(err)
	}

	if req.format == formatJSON {
		if len(sched.Prayers) == 0 {
			return protocol.CallResult{}, noPrayerTimes(req.zone, day)
		}
		return jsonText(sched.Prayers)
	}

	var (
		times waktusolat.PrayerTimes
		ok    bool
	)
	if exact {
		times, ok = sched.Day(day.Format(dateLayout))
	} else {
		times, ok = sched.Pick(day)
	}
	if !ok {
		return protocol.CallResult{}, noPrayerTimes(req.zone, day)
	}

	zone := sched.Zone
	if zone == "" {
		zone = req.zone
	}
	return protocol.TextResult(renderDay(zone, req.label, times)), nil
}

func renderDay(zone, label string, p waktusolat.PrayerTimes) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prayer times for %s on %s", zone, p.Date)
	if p.Day != "" {
		fmt.Fprintf(&b, " (%s)", p.Day)
	}
	b.WriteByte('\n')
	if label != "" {
		b.WriteString(label + "\n")
	}
	if p.Hijri != "" {
		fmt.Fprintf(&b, "Hijri: %s\n", p.Hijri)
	}
	for _, n := range p.Sequence() {
		name := n.Name
		if name == "Syuruk" {
			name = "Sunrise"
		}
		fmt.Fprintf(&b, "%s: %s\n", name, n.Time)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatArg(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), formatJSON) {
		return formatJSON
	}
	return formatText
}
