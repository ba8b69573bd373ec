package storage

import "errors"

// ErrUnavailable names the condition of the underlying database being
// unreachable. Neither backend in this module returns it; they return
// wrapped driver errors instead, and the orchestrator maps every
// LoadContext error to a server_error response without checking for it.
var ErrUnavailable = errors.New("conversation store unavailable")
