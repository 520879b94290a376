package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/waktusolat"
)

// Upstream is the prayer-time source the tools read from. *waktusolat.Client
// satisfies it; tests substitute fakes.
type Upstream interface {
	Zones(ctx context.Context) ([]waktusolat.Zone, error)
	PrayerTimes(ctx context.Context, zone string, month time.Time) (waktusolat.Schedule, error)
	CurrentPrayer(ctx context.Context, zone string) (waktusolat.CurrentPrayer, error)
}

// Clock returns the current time. Tools evaluate "today" with it.
type Clock func() time.Time

func (c Clock) orNow() Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// fromUpstream maps a client failure onto the tool error taxonomy.
func fromUpstream(err error) *protocol.ResponseError {
	if errors.Is(err, waktusolat.ErrInvalidZone) {
		return protocol.ValidationError("%v", err)
	}
	return protocol.UpstreamError(err)
}

// decodeArgs unmarshals already-validated arguments into dst.
func decodeArgs(raw json.RawMessage, dst any) *protocol.ResponseError {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return protocol.ValidationError("invalid arguments: %v", err)
	}
	return nil
}

// zoneArg normalises a zone code argument and checks its shape.
func zoneArg(name, value string) (string, *protocol.ResponseError) {
	code := strings.ToUpper(strings.TrimSpace(value))
	if code == "" {
		return "", protocol.MissingParameter(name)
	}
	if !waktusolat.ValidZoneCode(code) {
		return "", protocol.ValidationError("invalid zone code %q: expected three letters and two digits, e.g. SGR01", value)
	}
	return code, nil
}

const dateLayout = "2006-01-02"

// requestedDate resolves the date argument in Malaysia time. exact is false
// only for "today", where a schedule that lacks the day may fall back.
func requestedDate(value string, now time.Time) (day time.Time, exact bool, rerr *protocol.ResponseError) {
	now = now.In(waktusolat.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "", "today":
		return today, false, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), true, nil
	default:
		t, err := time.ParseInLocation(dateLayout, v, waktusolat.Location())
		if err != nil {
			return time.Time{}, false, protocol.ValidationError("invalid date %q: use today, tomorrow or YYYY-MM-DD", value)
		}
		return t, true, nil
	}
}

func jsonText(v any) (protocol.CallResult, *protocol.ResponseError) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return protocol.CallResult{}, protocol.InternalError("encode result: %v", err)
	}
	return protocol.TextResult(string(b)), nil
}

func noPrayerTimes(zone string, day time.Time) *protocol.ResponseError {
	return protocol.UpstreamError(fmt.Errorf("no prayer times for zone %s on %s", zone, day.Format(dateLayout)))
}
