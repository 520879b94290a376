package tools

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
)

// getCurrentPrayerTool reports the prayer in effect now and the next one.
type getCurrentPrayerTool struct {
	up Upstream
}

// GetCurrentPrayer constructs the tool.
func GetCurrentPrayer(up Upstream) *getCurrentPrayerTool {
	return &getCurrentPrayerTool{up: up}
}

func (t *getCurrentPrayerTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name: "get_current_prayer",
		Description: `Get the current and next prayer for a JAKIM zone.

Returns a JSON object with prayer, time, next_prayer and next_time.`,
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"zone": {Type: "string", Description: "JAKIM zone code such as SGR01"},
			},
			Required: []string{"zone"},
		},
	}
}

type currentPrayerArgs struct {
	Zone string `json:"zone"`
}

func (t *getCurrentPrayerTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args currentPrayerArgs
	if rerr := decodeArgs(raw, &args); rerr != nil {
		return protocol.CallResult{}, rerr
	}
	zone, rerr := zoneArg("zone", args.Zone)
	if rerr != nil {
		return protocol.CallResult{}, rerr
	}

	cur, err := t.up.CurrentPrayer(ctx, zone)
	if err != nil {
		return protocol.CallResult{}, fromUpstream(err)
	}
	return jsonText(cur)
}
