package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/waktusolat"
)

// getPrayerTimesTool returns one day of prayer times for a city or zone.
type getPrayerTimesTool struct {
	up  Upstream
	now Clock
}

// GetPrayerTimes constructs the tool.
func GetPrayerTimes(up Upstream, now Clock) *getPrayerTimesTool {
	return &getPrayerTimesTool{up: up, now: now.orNow()}
}

func (t *getPrayerTimesTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name: "get_prayer_times",
		Description: `Get Islamic prayer times for a city or JAKIM zone in Malaysia.

Pass either a zone code (e.g. SGR01, WLY01) or a city/district name
(e.g. "Shah Alam", "Kuala Lumpur"). Use list_zones to discover codes.

Returns Imsak (when published), Fajr, Sunrise, Dhuhr, Asr, Maghrib and Isha
in Malaysia time (UTC+8).`,
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"city":    {Type: "string", Description: "City or district name, matched against zone names"},
				"zone":    {Type: "string", Description: "JAKIM zone code such as SGR01; takes precedence over city"},
				"country": {Type: "string", Description: "Only Malaysia is supported. Default: Malaysia"},
				"date":    {Type: "string", Description: "today, tomorrow or YYYY-MM-DD. Default: today"},
				"format": {
					Type:        "string",
					Description: "text: one day as labelled lines (default). json: the whole month as an array",
					Enum:        []any{formatText, formatJSON},
				},
			},
		},
	}
}

type prayerTimesArgs struct {
	City    string `json:"city"`
	Zone    string `json:"zone"`
	Country string `json:"country"`
	Date    string `json:"date"`
	Format  string `json:"format"`
}

func (t *getPrayerTimesTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args prayerTimesArgs
	if rerr := decodeArgs(raw, &args); rerr != nil {
		return protocol.CallResult{}, rerr
	}
	if rerr := checkCountry(args.Country); rerr != nil {
		return protocol.CallResult{}, rerr
	}

	req := dayRequest{date: args.Date, format: formatArg(args.Format)}
	switch {
	case strings.TrimSpace(args.Zone) != "":
		code, rerr := zoneArg("zone", args.Zone)
		if rerr != nil {
			return protocol.CallResult{}, rerr
		}
		req.zone = code
	case strings.TrimSpace(args.City) != "":
		zone, rerr := t.zoneForCity(ctx, args.City)
		if rerr != nil {
			return protocol.CallResult{}, rerr
		}
		req.zone = zone.Code
		if zone.Name != "" {
			req.label = fmt.Sprintf("Zone: %s (%s)", zone.Name, zone.State)
		}
	default:
		return protocol.CallResult{}, protocol.MissingParameter("city or zone")
	}

	return prayerTimesForDay(ctx, t.up, t.now(), req)
}

// zoneForCity resolves a place name. A zone code passed as the city is used
// directly; otherwise the zone list is searched, preferring a zone that names
// the place exactly over one that merely contains it.
func (t *getPrayerTimesTool) zoneForCity(ctx context.Context, city string) (waktusolat.Zone, *protocol.ResponseError) {
	city = strings.TrimSpace(city)
	if code := strings.ToUpper(city); waktusolat.ValidZoneCode(code) {
		return waktusolat.Zone{Code: code}, nil
	}

	zones, err := t.up.Zones(ctx)
	if err != nil {
		return waktusolat.Zone{}, fromUpstream(err)
	}
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].Code < zones[j].Code })

	if z, ok := matchZone(zones, city); ok {
		return z, nil
	}
	return waktusolat.Zone{}, protocol.ValidationError("no zone matches city %q; use list_zones to find a zone code", city)
}

func matchZone(zones []waktusolat.Zone, city string) (waktusolat.Zone, bool) {
	needle := strings.ToLower(city)
	for _, z := range zones {
		for _, part := range strings.Split(z.Name, ",") {
			if strings.ToLower(strings.TrimSpace(part)) == needle {
				return z, true
			}
		}
	}
	for _, z := range zones {
		if strings.Contains(strings.ToLower(z.Name), needle) {
			return z, true
		}
	}
	return waktusolat.Zone{}, false
}

func checkCountry(country string) *protocol.ResponseError {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "", "malaysia", "my", "mys":
		return nil
	}
	return protocol.ValidationError("unsupported country %q: only Malaysia is supported", country)
}
