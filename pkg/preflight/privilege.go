package preflight

import (
	"errors"
	"fmt"
	"os"
)

// ErrPrivilege is returned when the process is not running as root.
var ErrPrivilege = errors.New("insufficient privilege: run as root")

// Gate asserts elevated privileges before any host mutation.
type Gate struct {
	euid func() int
}

func NewGate() *Gate {
	return &Gate{euid: os.Geteuid}
}

func (g *Gate) Check() error {
	if uid := g.euid(); uid != 0 {
		return fmt.Errorf("%w (effective uid %d)", ErrPrivilege, uid)
	}
	return nil
}
