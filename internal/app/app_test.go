package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/config"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
)

const zonesBody = `[
	{"jakimCode":"SGR01","negeri":"Selangor","daerah":"Gombak, Petaling, Sepang"},
	{"jakimCode":"WLY01","negeri":"Wilayah Persekutuan","daerah":"Kuala Lumpur, Putrajaya"}
]`

func newTestServerConfig(t *testing.T) config.Config {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/zones" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, zonesBody)
	}))
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.Upstream.BaseURL = upstream.URL
	return cfg
}

// frame keeps the result raw so each test decodes it into the type it expects.
type frame struct {
	ID     json.RawMessage         `json:"id"`
	Result json.RawMessage         `json:"result"`
	Error  *protocol.ResponseError `json:"error"`
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestNewToolboxRegistersAllTools(t *testing.T) {
	tb, err := NewToolbox(nil, nil)
	if err != nil {
		t.Fatalf("toolbox: %v", err)
	}
	var names []string
	for _, d := range tb.Describe() {
		names = append(names, d.Name)
		if d.InputSchema == nil || d.InputSchema.Type != "object" {
			t.Fatalf("%s: schema must be an object", d.Name)
		}
	}
	want := "debug_api_response,get_current_prayer,get_prayer_times,get_prayer_times_by_coordinates,list_zones"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("unexpected tools %s", got)
	}
}

func TestRunStdioSession(t *testing.T) {
	srv, err := NewServer(newTestServerConfig(t), discardLogger())
	if err != nil {
		t.Fatalf("server: %v", err)
	}

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_zones","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_current_prayer","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"get_prayer_times_by_coordinates","arguments":{"latitude":200,"longitude":101.5}}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"get_qibla","arguments":{}}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := Run(context.Background(), srv, strings.NewReader(in), &out, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resps []frame
	dec := json.NewDecoder(&out)
	for dec.More() {
		var f frame
		if err := dec.Decode(&f); err != nil {
			t.Fatalf("decode: %v", err)
		}
		resps = append(resps, f)
	}
	if len(resps) != 5 {
		t.Fatalf("expected 5 responses (notification unanswered), got %d: %s", len(resps), out.String())
	}

	var initRes protocol.InitializeResult
	if err := json.Unmarshal(resps[0].Result, &initRes); err != nil {
		t.Fatalf("initialize result: %v", err)
	}
	if initRes.ProtocolVersion != "2025-03-26" || initRes.ServerInfo.Name != "malaysia-prayer-time-mcp" {
		t.Fatalf("unexpected initialize result %+v", initRes)
	}

	var zones protocol.CallResult
	if err := json.Unmarshal(resps[1].Result, &zones); err != nil {
		t.Fatalf("list_zones result: %v", err)
	}
	if want := "SGR01: Gombak, Petaling, Sepang (Selangor)\nWLY01: Kuala Lumpur, Putrajaya (Wilayah Persekutuan)"; zones.Text() != want {
		t.Fatalf("unexpected zones text %q", zones.Text())
	}

	expectErr := func(i int, kind, contains string) {
		t.Helper()
		e := resps[i].Error
		if e == nil {
			t.Fatalf("response %d: expected error", i)
		}
		if e.Kind() != kind || !strings.Contains(e.Message, contains) {
			t.Fatalf("response %d: got kind %q message %q", i, e.Kind(), e.Message)
		}
	}
	expectErr(2, protocol.KindValidation, "missing required parameter: zone")
	expectErr(3, protocol.KindValidation, "invalid arguments for get_prayer_times_by_coordinates")
	expectErr(4, protocol.KindUnknownTool, "get_qibla")
}
