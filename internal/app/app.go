package app

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/config"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/mcp"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/tools"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/version"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/waktusolat"
)

// NewToolbox builds the prayer-time MCP toolbox.
func NewToolbox(up tools.Upstream, now tools.Clock) (*mcp.Toolbox, error) {
	return mcp.NewToolbox(
		// Prayer times
		tools.GetPrayerTimes(up, now),
		tools.GetPrayerTimesByCoordinates(up, now),
		tools.GetCurrentPrayer(up),

		// Zone discovery
		tools.ListZones(up),

		// Troubleshooting
		tools.DebugAPIResponse(up),
	)
}

// NewUpstream constructs the prayer-time API client.
func NewUpstream(cfg config.UpstreamConfig) (*waktusolat.Client, error) {
	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	return waktusolat.NewClient(cfg.BaseURL, cfg.Timeout, waktusolat.WithUserAgent(ua))
}

// NewServer constructs an MCP server backed by the live upstream.
func NewServer(cfg config.Config, log *logrus.Entry) (*mcp.Server, error) {
	up, err := NewUpstream(cfg.Upstream)
	if err != nil {
		return nil, err
	}
	tb, err := NewToolbox(up, nil)
	if err != nil {
		return nil, err
	}
	return mcp.NewServer(tb, mcp.Options{
		Name:           version.Name,
		Version:        version.Get().Version,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         log,
	}), nil
}

// Run serves stdio until the client closes it or ctx is cancelled. When
// httpAddr is set the HTTP transport runs alongside and stops with it.
func Run(ctx context.Context, srv *mcp.Server, in io.Reader, out io.Writer, httpAddr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return srv.ServeStdio(ctx, in, out)
	})
	if httpAddr != "" {
		g.Go(func() error {
			return srv.ListenHTTP(ctx, httpAddr)
		})
	}
	return g.Wait()
}

// RunHTTP serves only the HTTP transport until ctx is cancelled.
func RunHTTP(ctx context.Context, srv *mcp.Server, addr string) error {
	return srv.ListenHTTP(ctx, addr)
}
