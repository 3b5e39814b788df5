package types

// ProcState is the lifecycle state of one supervised child process.
type ProcState string

const (
	ProcStarting ProcState = "starting"
	ProcRunning  ProcState = "running"
	ProcStopping ProcState = "stopping"
	ProcStopped  ProcState = "stopped"
)

// ProcessStatus is a point-in-time snapshot of one child.
type ProcessStatus struct {
	Name  string    `json:"name"`
	Pid   int       `json:"pid,omitempty"`
	State ProcState `json:"state"`
}

// StatusResponse is the admin API's /status payload.
type StatusResponse struct {
	Processes []ProcessStatus `json:"processes"`
	UptimeSec int64           `json:"uptime_sec"`
}
