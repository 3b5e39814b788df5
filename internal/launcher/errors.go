package launcher

// launchError signals that a child process failed to start (missing binary,
// permission denied). Fatal, no retry.
type launchError struct {
	name string
	err  error
}

func (e launchError) Error() string { return "failed to launch " + e.name + ": " + e.err.Error() }

func (e launchError) Unwrap() error { return e.err }

// IsLaunch reports whether err indicates a child process that never started.
func IsLaunch(err error) bool {
	_, ok := err.(launchError)
	return ok
}
