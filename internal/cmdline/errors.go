package cmdline

// validationError signals a spec that references a missing executable or
// artifact (or carries no name). Raised before any process is spawned.
type validationError struct {
	what   string
	detail string
}

func (e validationError) Error() string { return "invalid model spec: " + e.what + ": " + e.detail }

// IsValidation reports whether err is a model spec validation failure.
func IsValidation(err error) bool {
	_, ok := err.(validationError)
	return ok
}
