package wireguard

import (
	"fmt"
	"strconv"

	"golang.zx2c4.com/wireguard/wgctrl"

	"wg-deploy/pkg/model"
)

// DefaultInterface is the device name the service image creates.
const DefaultInterface = "wg0"

// DeviceReader reads a live WireGuard device from the host kernel.
type DeviceReader interface {
	Device(name string) (*model.InterfaceState, error)
}

// Kernel reads devices through wgctrl. Because the container runs in host
// network mode its device is visible here.
type Kernel struct{}

func (Kernel) Device(name string) (*model.InterfaceState, error) {
	client, err := wgctrl.New()
	if err != nil {
		return nil, fmt.Errorf("open wgctrl: %w", err)
	}
	defer client.Close()

	dev, err := client.Device(name)
	if err != nil {
		return nil, fmt.Errorf("read device %s: %w", name, err)
	}
	return &model.InterfaceState{
		Name:       dev.Name,
		PublicKey:  dev.PublicKey.String(),
		ListenPort: dev.ListenPort,
		Peers:      len(dev.Peers),
	}, nil
}

// ParseShow builds a best-effort InterfaceState from `wg show` text output.
func ParseShow(out string) *model.InterfaceState {
	st := &model.InterfaceState{Raw: out}
	for _, line := range splitLines(out) {
		key, val, ok := cutField(line)
		if !ok {
			continue
		}
		switch key {
		case "interface":
			if st.Name == "" {
				st.Name = val
			}
		case "public key":
			if st.PublicKey == "" {
				st.PublicKey = val
			}
		case "listening port":
			port, err := strconv.Atoi(val)
			if err != nil {
				port = 0
			}
			st.ListenPort = port
		case "peer":
			st.Peers++
		}
	}
	return st
}
