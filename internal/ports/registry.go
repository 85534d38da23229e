package ports

import (
	"sort"
	"sync"

	"github.com/harshul/phpack/internal/apperr"
)

// Registry maps listening ports to the pid of the preview server that owns
// them. A single Registry is shared by every caller that starts or stops
// servers; all methods are safe for concurrent use and each one runs under
// the registry lock, so check-and-insert is atomic.
type Registry struct {
	mu      sync.Mutex
	servers map[uint16]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{servers: make(map[uint16]int)}
}

// Reserve records pid as the owner of port. It fails with PortInUse if the
// port is already registered and leaves the registry untouched.
func (r *Registry) Reserve(port uint16, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.servers[port]; ok {
		return apperr.New(apperr.PortInUse, "reserve port", "port %d is held by pid %d", port, owner)
	}
	r.servers[port] = pid
	return nil
}

// Release removes port and returns the pid it held.
func (r *Registry) Release(port uint16) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, ok := r.servers[port]
	if ok {
		delete(r.servers, port)
	}
	return pid, ok
}

// ReleaseIf removes port only while it is still held by pid.
func (r *Registry) ReleaseIf(port uint16, pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.servers[port]; ok && owner == pid {
		delete(r.servers, port)
		return true
	}
	return false
}

// Contains reports whether port is registered.
func (r *Registry) Contains(port uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.servers[port]
	return ok
}

// Lookup returns the pid registered for port.
func (r *Registry) Lookup(port uint16) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pid, ok := r.servers[port]
	return pid, ok
}

// Entry is one registered server.
type Entry struct {
	Port uint16
	PID  int
}

// Entries returns a snapshot of the registry sorted by port.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	entries := make([]Entry, 0, len(r.servers))
	for port, pid := range r.servers {
		entries = append(entries, Entry{Port: port, PID: pid})
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Port < entries[j].Port })
	return entries
}

// Len returns the number of registered servers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.servers)
}
