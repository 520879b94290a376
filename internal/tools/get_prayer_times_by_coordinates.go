package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/waktusolat"
)

// getPrayerTimesByCoordinatesTool maps a point to its nearest zone and returns that zone's times.
type getPrayerTimesByCoordinatesTool struct {
	up  Upstream
	now Clock
}

// GetPrayerTimesByCoordinates constructs the tool.
func GetPrayerTimesByCoordinates(up Upstream, now Clock) *getPrayerTimesByCoordinatesTool {
	return &getPrayerTimesByCoordinatesTool{up: up, now: now.orNow()}
}

func (t *getPrayerTimesByCoordinatesTool) Descriptor() protocol.ToolDescriptor {
	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0
	return protocol.ToolDescriptor{
		Name:        "get_prayer_times_by_coordinates",
		Description: "Get prayer times for the JAKIM zone nearest to a latitude/longitude in Malaysia.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"latitude":  {Type: "number", Description: "Latitude in decimal degrees", Minimum: &minLat, Maximum: &maxLat},
				"longitude": {Type: "number", Description: "Longitude in decimal degrees", Minimum: &minLon, Maximum: &maxLon},
				"date":      {Type: "string", Description: "today, tomorrow or YYYY-MM-DD. Default: today"},
				"format": {
					Type:        "string",
					Description: "text: one day as labelled lines (default). json: the whole month as an array",
					Enum:        []any{formatText, formatJSON},
				},
			},
			Required: []string{"latitude", "longitude"},
		},
	}
}

type coordinatesArgs struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Date      string  `json:"date"`
	Format    string  `json:"format"`
}

func (t *getPrayerTimesByCoordinatesTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args coordinatesArgs
	if rerr := decodeArgs(raw, &args); rerr != nil {
		return protocol.CallResult{}, rerr
	}

	zone, km, err := waktusolat.NearestZone(args.Latitude, args.Longitude)
	if errors.Is(err, waktusolat.ErrOutsideMalaysia) {
		return protocol.CallResult{}, protocol.ValidationError("coordinates (%.4f, %.4f) are outside Malaysia: nearest zone is %.0f km away", args.Latitude, args.Longitude, km)
	}
	if err != nil {
		return protocol.CallResult{}, protocol.InternalError("resolve zone: %v", err)
	}

	return prayerTimesForDay(ctx, t.up, t.now(), dayRequest{
		zone:   zone,
		label:  fmt.Sprintf("Nearest zone to (%.4f, %.4f), %.1f km away", args.Latitude, args.Longitude, km),
		date:   args.Date,
		format: formatArg(args.Format),
	})
}
