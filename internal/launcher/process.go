package launcher

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"llamadeck/pkg/types"
)

// process is one supervised child. Both children inherit the parent's
// stdout/stderr so failures are visible to an operator watching the
// foreground session; nothing is buffered or captured.
type process struct {
	name string
	cmd  *exec.Cmd

	mu    sync.Mutex
	state types.ProcState
	done  chan struct{} // closed once Wait returns
	werr  error
}

func newProcess(name string, bin string, args ...string) *process {
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return &process{
		name:  name,
		cmd:   cmd,
		state: types.ProcStarting,
		done:  make(chan struct{}),
	}
}

// start spawns the child and begins a single waiter goroutine. Spawn failure
// is synchronous and fatal; there is no retry.
func (p *process) start() error {
	if err := p.cmd.Start(); err != nil {
		p.setState(types.ProcStopped)
		return launchError{name: p.name, err: err}
	}
	p.setState(types.ProcRunning)
	go func() {
		p.werr = p.cmd.Wait()
		p.setState(types.ProcStopped)
		close(p.done)
	}()
	return nil
}

// terminate asks the child to exit with SIGTERM and escalates to SIGKILL
// after the grace window. A child that ignores both is left to the operator.
func (p *process) terminate(grace time.Duration) error {
	p.mu.Lock()
	if p.state != types.ProcRunning {
		p.mu.Unlock()
		return nil
	}
	p.state = types.ProcStopping
	p.mu.Unlock()

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return err
	}
	select {
	case <-p.done:
	case <-time.After(grace):
		_ = p.cmd.Process.Kill()
		<-p.done
	}
	return nil
}

func (p *process) setState(s types.ProcState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *process) snapshot() types.ProcessStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := types.ProcessStatus{Name: p.name, State: p.state}
	if p.cmd.Process != nil {
		st.Pid = p.cmd.Process.Pid
	}
	return st
}

// waitErr blocks until the child exits and returns the wait error.
func (p *process) waitErr() error {
	<-p.done
	return p.werr
}
