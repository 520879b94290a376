package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/app"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/logging"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		httpAddr string
		noStdio  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio (and optionally HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.Server.HTTPAddr = httpAddr
			}
			if noStdio && cfg.Server.HTTPAddr == "" {
				return errors.New("--no-stdio requires --http or server.http_addr")
			}

			logger, cleanup, err := logging.New("server", logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			})
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer cleanup()

			// stdout carries protocol frames only. Anything else that prints
			// lands on stderr, and the std logger feeds logrus.
			frames := os.Stdout
			os.Stdout = os.Stderr
			defer func() { os.Stdout = frames }()
			stdLog := logger.WriterLevel(logrus.WarnLevel)
			defer stdLog.Close()
			log.SetFlags(0)
			log.SetOutput(stdLog)

			srv, err := app.NewServer(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.WithFields(logrus.Fields{
				"upstream": cfg.Upstream.BaseURL,
				"http":     cfg.Server.HTTPAddr,
				"stdio":    !noStdio,
			}).Info("starting")

			if noStdio {
				err = app.RunHTTP(ctx, srv, cfg.Server.HTTPAddr)
			} else {
				err = app.Run(ctx, srv, os.Stdin, frames, cfg.Server.HTTPAddr)
			}
			if err != nil {
				logger.WithError(err).Error("server stopped")
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "also serve MCP over HTTP on this address (e.g. :3333)")
	cmd.Flags().BoolVar(&noStdio, "no-stdio", false, "serve HTTP only")
	return cmd
}

func callCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Invoke one tool locally and print its text output",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			logger, cleanup, err := logging.New("call", logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			})
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer cleanup()

			srv, err := app.NewServer(cfg, logger)
			if err != nil {
				return err
			}

			arguments := json.RawMessage(`{}`)
			if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
				arguments = json.RawMessage(args[1])
			}
			params, err := json.Marshal(protocol.CallParams{Name: args[0], Args: arguments})
			if err != nil {
				return fmt.Errorf("encode arguments: %w", err)
			}

			resp := srv.Handle(context.Background(), protocol.Request{
				JSONRPC: protocol.Version,
				ID:      json.RawMessage(`1`),
				Method:  "tools/call",
				Params:  params,
			})
			if resp.Error != nil {
				kind := resp.Error.Kind()
				if kind == "" {
					kind = "error"
				}
				return fmt.Errorf("%s: %s", kind, resp.Error.Message)
			}
			result, ok := resp.Result.(protocol.CallResult)
			if !ok {
				return fmt.Errorf("unexpected result type %T", resp.Result)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Text())
			return err
		},
	}
}
