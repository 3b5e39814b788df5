package launcher

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"llamadeck/pkg/types"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

func testOptions(t *testing.T, proxyBody, supervisorBody string) Options {
	t.Helper()
	return Options{
		SupervisorBin: writeScript(t, "fake-llama-swap", supervisorBody),
		ConfigPath:    "/tmp/swap.yaml",
		ListenAddr:    "0.0.0.0:8080",
		NginxBin:      writeScript(t, "fake-nginx", proxyBody),
		ProxyConfPath: "/tmp/nginx.conf",
		Grace:         2 * time.Second,
	}
}

func TestStartMissingProxyBinary(t *testing.T) {
	opts := testOptions(t, "sleep 30", "sleep 30")
	opts.NginxBin = filepath.Join(t.TempDir(), "no-such-nginx")
	_, err := Start(opts, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsLaunch(err) {
		t.Fatalf("expected launch error, got %v", err)
	}
}

func TestStartMissingSupervisorStopsProxy(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "proxy-stopped")
	opts := testOptions(t, "trap 'touch "+marker+"; exit 0' TERM\nwhile :; do sleep 0.1; done", "sleep 30")
	opts.SupervisorBin = filepath.Join(t.TempDir(), "no-such-swap")
	_, err := Start(opts, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsLaunch(err) {
		t.Fatalf("expected launch error, got %v", err)
	}
	// The already-started proxy must have been torn down again.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(marker); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("proxy was not terminated after supervisor launch failure")
}

func TestWaitReturnsWhenSupervisorExits(t *testing.T) {
	opts := testOptions(t, "sleep 30", "sleep 0.1")
	c, err := Start(opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	snap := c.Snapshot()
	for _, p := range snap.Processes {
		if p.State != types.ProcStopped {
			t.Fatalf("%s still %s after wait", p.Name, p.State)
		}
	}
}

func TestWaitPropagatesSupervisorExitCode(t *testing.T) {
	opts := testOptions(t, "sleep 30", "exit 7")
	c, err := Start(opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	err = c.Wait(context.Background())
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected exit error, got %v", err)
	}
	if exitErr.ExitCode() != 7 {
		t.Fatalf("expected exit code 7, got %d", exitErr.ExitCode())
	}
}

func TestWaitInterruptShutsDownBoth(t *testing.T) {
	opts := testOptions(t, "sleep 30", "sleep 30")
	c, err := Start(opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := c.Snapshot()
	if snap.Processes[0].Name != "nginx" || snap.Processes[1].Name != "llama-swap" {
		t.Fatalf("unexpected process order: %+v", snap.Processes)
	}
	if !c.Ready() {
		t.Fatalf("expected both children running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	for _, p := range c.Snapshot().Processes {
		if p.State != types.ProcStopped {
			t.Fatalf("%s still %s after interrupt", p.Name, p.State)
		}
	}
	if c.Ready() {
		t.Fatalf("ready after shutdown")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	opts := testOptions(t, "sleep 30", "sleep 30")
	c, err := Start(opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Shutdown()
	c.Shutdown() // terminating stopped children is a no-op
}
