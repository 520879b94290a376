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

// listZonesTool enumerates the JAKIM zones known upstream.
type listZonesTool struct {
	up Upstream
}

// ListZones constructs the tool.
func ListZones(up Upstream) *listZonesTool {
	return &listZonesTool{up: up}
}

func (t *listZonesTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        "list_zones",
		Description: "List Malaysian prayer-time zones as CODE: districts (state), optionally for one state.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"state": {Type: "string", Description: "Only list zones whose state contains this text, e.g. Selangor"},
			},
		},
	}
}

type listZonesArgs struct {
	State string `json:"state"`
}

func (t *listZonesTool) Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	var args listZonesArgs
	if rerr := decodeArgs(raw, &args); rerr != nil {
		return protocol.CallResult{}, rerr
	}

	zones, err := t.up.Zones(ctx)
	if err != nil {
		return protocol.CallResult{}, fromUpstream(err)
	}

	state := strings.ToLower(strings.TrimSpace(args.State))
	seen := make(map[string]bool, len(zones))
	out := make([]waktusolat.Zone, 0, len(zones))
	for _, z := range zones {
		if seen[z.Code] {
			continue
		}
		seen[z.Code] = true
		if state != "" && !strings.Contains(strings.ToLower(z.State), state) {
			continue
		}
		out = append(out, z)
	}
	if len(out) == 0 {
		if state != "" {
			return protocol.CallResult{}, protocol.ValidationError("no zones found for state %q", args.State)
		}
		return protocol.CallResult{}, protocol.UpstreamError(fmt.Errorf("upstream returned no zones"))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].Code < out[j].Code
	})

	lines := make([]string, len(out))
	for i, z := range out {
		lines[i] = fmt.Sprintf("%s: %s (%s)", z.Code, z.Name, z.State)
	}
	return protocol.TextResult(strings.Join(lines, "\n")), nil
}
