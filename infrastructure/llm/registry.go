package llm

import (
	"sync"

	"github.com/gitmate/gitmate/internal/domain"
	"github.com/gitmate/gitmate/internal/ports"
)

// LifecycleState is the observable state of the registry, exposed for
// liveness reporting.
type LifecycleState int

const (
	// StateUninitialized means Init has not been called yet.
	StateUninitialized LifecycleState = iota

	// StateReady means a client is bound and presumed reachable.
	StateReady

	// StateCleanedUp means the client has been released.
	StateCleanedUp
)

// String returns a human-readable state for logs and health output.
func (s LifecycleState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateCleanedUp:
		return "cleaned_up"
	default:
		return "uninitialized"
	}
}

var _ ports.HandleSource = (*Registry)(nil)

// Registry owns the single process-wide completion client. The client
// is bound explicitly at process start with Init, borrowed by callers
// through Lookup, and released at process stop with Cleanup. Lookup
// outside the Init/Cleanup window fails with an Unconfigured error
// rather than returning a nil or stale handle.
//
// The registry's flag is only mutated during the Init and Cleanup
// transitions; ordinary Lookup calls take a read lock and may run
// concurrently with Generate traffic. The bound client must itself be
// safe for concurrent use, which every client built by NewClient is.
type Registry struct {
	mu     sync.RWMutex
	state  LifecycleState
	client ports.CompletionClient
}

// NewRegistry returns an empty registry in the uninitialized state.
func NewRegistry() *Registry {
	return &Registry{state: StateUninitialized}
}

// Init binds the shared client. It fails with ErrAlreadyConfigured if
// a client is still bound; a silent overwrite would leak the previous
// connection and hide a wiring bug. After Cleanup the registry may be
// initialized again, starting a new lifecycle interval.
func (r *Registry) Init(client ports.CompletionClient) error {
	if client == nil {
		return domain.ErrUnconfigured
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateReady {
		return domain.ErrAlreadyConfigured
	}

	r.client = client
	r.state = StateReady
	return nil
}

// Lookup returns the bound client. Repeated calls between Init and
// Cleanup return the same handle; calls before Init or after Cleanup
// fail with ErrUnconfigured.
func (r *Registry) Lookup() (ports.CompletionClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state != StateReady {
		return nil, domain.ErrUnconfigured
	}
	return r.client, nil
}

// Cleanup releases the bound client and clears the binding. It is
// idempotent: a second call is a no-op, not an error. Calling it
// before Init leaves the registry uninitialized.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateReady {
		return
	}
	r.client = nil
	r.state = StateCleanedUp
}

// State reports the registry's lifecycle state for liveness checks.
func (r *Registry) State() LifecycleState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}
