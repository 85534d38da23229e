package ports

import (
	"fmt"
	"net"
	"strconv"

	"github.com/harshul/phpack/internal/apperr"
)

// Default preview port range, [DefaultRangeStart, DefaultRangeEnd).
const (
	DefaultRangeStart uint16 = 8000
	DefaultRangeEnd   uint16 = 9000
)

// Range is a half-open port interval [Start, End).
type Range struct {
	Start uint16
	End   uint16
}

// DefaultRange is the range probed by FindAvailablePort.
var DefaultRange = Range{Start: DefaultRangeStart, End: DefaultRangeEnd}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, int(r.End)-1)
}

// IsPortAvailable checks if a port can be bound on the loopback interface.
func IsPortAvailable(port uint16) bool {
	listener, err := net.Listen("tcp", Address("127.0.0.1", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// FindAvailablePort returns the first bindable port in the default range.
func FindAvailablePort() (uint16, error) {
	return FindAvailablePortIn(DefaultRange)
}

// FindAvailablePortIn probes r in ascending order and returns the first port
// that can be bound. The port is released again before returning, so another
// process may take it in the meantime.
func FindAvailablePortIn(r Range) (uint16, error) {
	for port := int(r.Start); port < int(r.End); port++ {
		if IsPortAvailable(uint16(port)) {
			return uint16(port), nil
		}
	}
	return 0, apperr.New(apperr.NoPortAvailable, "find available port", "every port in %s is taken", r)
}

// Address joins host and port into a dialable address.
func Address(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}
