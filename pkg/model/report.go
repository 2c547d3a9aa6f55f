package model

import "time"

// InterfaceState is the live WireGuard device as seen from the host.
type InterfaceState struct {
	Name       string `json:"name"`
	PublicKey  string `json:"publicKey,omitempty"`
	ListenPort int    `json:"listenPort,omitempty"`
	Peers      int    `json:"peers"`
	Raw        string `json:"raw,omitempty"` // wg show output when the device could not be read directly
}

// Report summarizes a deployment from observed host and container state.
type Report struct {
	GeneratedAt   time.Time         `json:"generatedAt"`
	Host          string            `json:"host"`
	ServerAddress string            `json:"serverAddress"`
	Port          int               `json:"port"`
	Peers         int               `json:"peers"`
	ConfigDir     string            `json:"configDir"`
	Container     ContainerHandle   `json:"container"`
	Sysctl        map[string]string `json:"sysctl"`
	Interface     *InterfaceState   `json:"interface,omitempty"`
	PeerProfile   string            `json:"peerProfile"`
	PeerImage     string            `json:"peerImage"`
	ProfileFound  bool              `json:"profileFound"`
	Endpoint      string            `json:"endpoint,omitempty"`
	AllowedIPs    []string          `json:"allowedIps,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
}
