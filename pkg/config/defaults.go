package config

import (
	"time"

	"wg-deploy/pkg/model"
)

const (
	DefaultPort           = 51820
	DefaultPeers          = 1
	DefaultConfigDir      = "/opt/wireguard/config"
	DefaultTimezone       = "Etc/UTC"
	DefaultContainerName  = "wireguard"
	DefaultImage          = "lscr.io/linuxserver/wireguard:latest"
	DefaultPeerDNS        = "auto"
	DefaultInternalSubnet = "10.13.13.0"

	// DefaultProbeTimeout bounds each address-detection request.
	DefaultProbeTimeout = 5 * time.Second
)

// DefaultEndpoints are queried in order for the host's public address.
var DefaultEndpoints = []string{
	"https://api.ipify.org",
	"https://ifconfig.me/ip",
	"https://icanhazip.com",
}

// Default returns the configuration used when nothing else is supplied.
// ServerAddress is left empty so it is detected at resolve time.
func Default() model.DeploymentConfig {
	return model.DeploymentConfig{
		Port:           DefaultPort,
		Peers:          DefaultPeers,
		ConfigDir:      DefaultConfigDir,
		Timezone:       DefaultTimezone,
		ContainerName:  DefaultContainerName,
		Image:          DefaultImage,
		PeerDNS:        DefaultPeerDNS,
		InternalSubnet: DefaultInternalSubnet,
	}
}
