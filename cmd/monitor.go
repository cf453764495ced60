package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keylatch/internal/capture"
	"keylatch/internal/logging"
	"keylatch/internal/network"
)

var monitorOpts struct {
	addr  string
	token string
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print the key stream and capture state of a running keylatch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfgMgr, log, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()
		addr := monitorOpts.addr
		if addr == "" {
			addr = cfg.API.Addr
		}
		token := monitorOpts.token
		if token == "" {
			token = cfg.API.Token
		}

		client := network.NewWSClient(addr, token, logging.Component(log, "monitor"))
		client.OnKey = func(ev capture.GlobalKeyEvent) { fmt.Println(formatKey(ev)) }
		client.OnState = func(s capture.Snapshot) { fmt.Println(formatState(s)) }
		client.OnError = func(msg string) { color.New(color.FgRed).Printf("error: %s\n", msg) }

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		color.New(color.Faint).Printf("watching %s (Ctrl+C to quit)\n", client.URL())
		client.Run(ctx)
		return nil
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorOpts.addr, "addr", "", "address of the keylatch API (default from config)")
	monitorCmd.Flags().StringVar(&monitorOpts.token, "token", "", "API token (default from config)")
}

func formatKey(ev capture.GlobalKeyEvent) string {
	arrow := color.New(color.FgGreen).Sprint("▼")
	if ev.Phase == capture.PhaseUp {
		arrow = color.New(color.FgYellow).Sprint("▲")
	}

	var mods []string
	for _, m := range []struct {
		on   bool
		name string
	}{{ev.Ctrl, "ctrl"}, {ev.Shift, "shift"}, {ev.Alt, "alt"}, {ev.Meta, "meta"}, {ev.Caps, "caps"}} {
		if m.on {
			mods = append(mods, m.name)
		}
	}

	line := fmt.Sprintf("%d %s %-14s", ev.TimestampMs, arrow, ev.Code)
	if ev.Text != nil {
		line += fmt.Sprintf(" %q", *ev.Text)
	}
	if len(mods) > 0 {
		line += " " + color.New(color.Faint).Sprint("["+strings.Join(mods, "+")+"]")
	}
	if ev.Repeat {
		line += color.New(color.Faint).Sprint(" repeat")
	}
	return line
}

func formatState(s capture.Snapshot) string {
	if !s.Active {
		return color.New(color.FgCyan).Sprintf("capture idle (suppression available: %v)", s.SuppressionAvailable)
	}
	return color.New(color.FgCyan, color.Bold).Sprintf("capture active %s mode=%s input=%s latched=[%s]",
		s.SessionID, s.Mode, s.InputMode, strings.Join(s.Latched, " "))
}
