package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
)

const debugDefaultZone = "SGR01"

// debugAPIResponseTool summarises the raw schedule upstream returns for a zone.
type debugAPIResponseTool struct {
	up Upstream
}

// DebugAPIResponse constructs the tool.
func DebugAPIResponse(up Upstream) *debugAPIResponseTool {
	return &debugAPIResponseTool{up: up}
}

func (t *debugAPIResponseTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        "debug_api_response",
		Description: "Show what the prayer-time API currently returns for a zone. Intended for troubleshooting.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"zone_code": {Type: "string", Description: "JAKIM zone code. Default: " + debugDefaultZone},
			},
		},
	}
}

type debugArgs struct {
	ZoneCode string `json:"zone_code"`
}

func (t *debugAPIResponseTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args debugArgs
	if rerr := decodeArgs(raw, &args); rerr != nil {
		return protocol.CallResult{}, rerr
	}
	if strings.TrimSpace(args.ZoneCode) == "" {
		args.ZoneCode = debugDefaultZone
	}
	zone, rerr := zoneArg("zone_code", args.ZoneCode)
	if rerr != nil {
		return protocol.CallResult{}, rerr
	}

	sched, err := t.up.PrayerTimes(ctx, zone, time.Time{})
	if err != nil {
		return protocol.CallResult{}, fromUpstream(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "API response for zone %s\n", zone)
	fmt.Fprintf(&b, "Zone: %s\n", sched.Zone)
	if sched.Year != 0 {
		fmt.Fprintf(&b, "Year: %d\n", sched.Year)
	}
	if sched.Month != "" {
		fmt.Fprintf(&b, "Month: %s\n", sched.Month)
	}
	if sched.LastUpdated != "" {
		fmt.Fprintf(&b, "Last updated: %s\n", sched.LastUpdated)
	}
	fmt.Fprintf(&b, "Days: %d\n", len(sched.Prayers))
	if len(sched.Prayers) > 0 {
		first, _ := json.MarshalIndent(sched.Prayers[0], "", "  ")
		fmt.Fprintf(&b, "First day:\n%s", first)
	}
	return protocol.TextResult(strings.TrimRight(b.String(), "\n")), nil
}
