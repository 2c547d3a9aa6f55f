package model

// OSFamily selects the package manager used to install host dependencies.
type OSFamily string

const (
	OSFamilyDebian  OSFamily = "debian"
	OSFamilyRHEL    OSFamily = "rhel"
	OSFamilyUnknown OSFamily = "unknown"
)

// HostCapabilities are probed on every run and never cached.
type HostCapabilities struct {
	OSFamily         OSFamily `json:"osFamily"`
	OSID             string   `json:"osId"`
	UFW              bool     `json:"ufw"`
	Firewalld        bool     `json:"firewalld"`
	Iptables         bool     `json:"iptables"`
	ContainerRuntime bool     `json:"containerRuntime"`
}
