// Package launcher starts the reverse proxy and the swap supervisor as
// child OS processes and coordinates their shutdown.
//
// The proxy starts first: it must be listening before any external traffic
// arrives, and it only forwards, so it does not care whether the supervisor
// is up yet. Shutdown runs the other way around, supervisor first.
package launcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"llamadeck/pkg/types"
)

const defaultGrace = 10 * time.Second

// Options describes the two children to launch.
type Options struct {
	SupervisorBin  string // llama-swap binary
	ConfigPath     string // serialized supervisor config document
	ListenAddr     string // supervisor bind address, host:port
	NginxBin       string // defaults to "nginx"
	ProxyConfPath  string // rendered nginx config
	Grace          time.Duration
}

// Coordinator owns the two child processes for the lifetime of a serve run.
type Coordinator struct {
	proxy      *process
	supervisor *process
	grace      time.Duration
	started    time.Time
	log        zerolog.Logger
}

// Start launches the proxy, then the supervisor. If the supervisor fails to
// spawn, the already-running proxy is torn down again before returning.
func Start(opts Options, log zerolog.Logger) (*Coordinator, error) {
	nginx := opts.NginxBin
	if nginx == "" {
		nginx = "nginx"
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = defaultGrace
	}

	c := &Coordinator{
		proxy:      newProcess("nginx", nginx, "-c", opts.ProxyConfPath, "-g", "daemon off;"),
		supervisor: newProcess("llama-swap", opts.SupervisorBin, "-config", opts.ConfigPath, "-listen", opts.ListenAddr),
		grace:      grace,
		started:    time.Now(),
		log:        log,
	}

	log.Info().Str("config", opts.ProxyConfPath).Msg("starting nginx reverse proxy")
	if err := c.proxy.start(); err != nil {
		return nil, err
	}
	log.Info().Str("config", opts.ConfigPath).Str("listen", opts.ListenAddr).Msg("starting llama-swap supervisor")
	if err := c.supervisor.start(); err != nil {
		if terr := c.proxy.terminate(grace); terr != nil {
			log.Warn().Err(terr).Msg("failed to stop proxy after supervisor launch failure")
		}
		return nil, err
	}
	return c, nil
}

// Wait blocks until the supervisor exits on its own or ctx is canceled
// (interrupt signal). On cancellation both children are shut down and the
// supervisor's exit error, if any, is returned so the caller can propagate
// its exit code.
func (c *Coordinator) Wait(ctx context.Context) error {
	supDone := make(chan error, 1)
	go func() { supDone <- c.supervisor.waitErr() }()

	select {
	case err := <-supDone:
		c.log.Info().Err(err).Msg("supervisor exited, stopping proxy")
		c.Shutdown()
		return err
	case <-ctx.Done():
		c.log.Info().Msg("interrupt received, shutting down")
		c.Shutdown()
		return nil
	}
}

// Shutdown terminates the supervisor first, then the proxy. Best effort: a
// failure stopping one never prevents attempting the other.
func (c *Coordinator) Shutdown() {
	if err := c.supervisor.terminate(c.grace); err != nil {
		c.log.Warn().Err(err).Msg("failed to stop supervisor")
	}
	if err := c.proxy.terminate(c.grace); err != nil {
		c.log.Warn().Err(err).Msg("failed to stop proxy")
	}
}

// Snapshot reports the current state of both children, proxy first.
func (c *Coordinator) Snapshot() types.StatusResponse {
	return types.StatusResponse{
		Processes: []types.ProcessStatus{c.proxy.snapshot(), c.supervisor.snapshot()},
		UptimeSec: int64(time.Since(c.started).Seconds()),
	}
}

// Ready reports whether both children are currently running.
func (c *Coordinator) Ready() bool {
	return c.proxy.snapshot().State == types.ProcRunning &&
		c.supervisor.snapshot().State == types.ProcRunning
}
