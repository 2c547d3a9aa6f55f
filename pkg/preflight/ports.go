package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/procfs"
)

// PortConflictError means something already listens on the target port.
type PortConflictError struct {
	Port  int
	Proto string
}

func (e *PortConflictError) Error() string {
	return fmt.Sprintf("port %d/%s is already in use", e.Port, e.Proto)
}

// SocketTable reports which UDP ports are bound on the host.
type SocketTable interface {
	UDPPortBound(port int) (bool, error)
}

// ProcSockets reads /proc/net/udp and /proc/net/udp6.
type ProcSockets struct {
	mount string
	fs    procfs.FS
}

func NewProcSockets(mount string) (*ProcSockets, error) {
	fs, err := procfs.NewFS(mount)
	if err != nil {
		return nil, fmt.Errorf("open procfs %s: %w", mount, err)
	}
	return &ProcSockets{mount: mount, fs: fs}, nil
}

func (p *ProcSockets) UDPPortBound(port int) (bool, error) {
	v4, err := p.fs.NetUDP()
	if err != nil {
		return false, fmt.Errorf("read udp socket table: %w", err)
	}
	for _, s := range v4 {
		if s.LocalPort == uint64(port) {
			return true, nil
		}
	}
	// udp6 is absent when IPv6 is disabled
	if _, err := os.Stat(filepath.Join(p.mount, "net", "udp6")); err != nil {
		return false, nil
	}
	v6, err := p.fs.NetUDP6()
	if err != nil {
		return false, fmt.Errorf("read udp6 socket table: %w", err)
	}
	for _, s := range v6 {
		if s.LocalPort == uint64(port) {
			return true, nil
		}
	}
	return false, nil
}

// CheckPort fails with *PortConflictError when port is bound. No other port
// is ever tried in its place.
func CheckPort(table SocketTable, port int) error {
	bound, err := table.UDPPortBound(port)
	if err != nil {
		return err
	}
	if bound {
		return &PortConflictError{Port: port, Proto: "udp"}
	}
	return nil
}
