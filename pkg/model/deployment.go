package model

import (
	"fmt"
	"path/filepath"
)

// DeploymentConfig is resolved once per run and passed by value to every stage.
type DeploymentConfig struct {
	Port           int    `json:"port" yaml:"port"`
	Peers          int    `json:"peers" yaml:"peers"`
	ConfigDir      string `json:"configDir" yaml:"configDir"`
	Timezone       string `json:"timezone" yaml:"timezone"`
	ServerAddress  string `json:"serverAddress,omitempty" yaml:"serverAddress"`
	AutoConfirm    bool   `json:"autoConfirm" yaml:"autoConfirm"`
	ContainerName  string `json:"containerName" yaml:"containerName"`
	Image          string `json:"image" yaml:"image"`
	PeerDNS        string `json:"peerDns" yaml:"peerDns"`
	InternalSubnet string `json:"internalSubnet" yaml:"internalSubnet"`
}

// PeerDir is the directory the service generates for peer index i (1-based).
func (c DeploymentConfig) PeerDir(i int) string {
	return filepath.Join(c.ConfigDir, fmt.Sprintf("peer%d", i))
}

// PeerProfile is the connection profile generated for peer i.
func (c DeploymentConfig) PeerProfile(i int) string {
	return filepath.Join(c.PeerDir(i), fmt.Sprintf("peer%d.conf", i))
}

// PeerImage is the QR image generated next to the profile for peer i.
func (c DeploymentConfig) PeerImage(i int) string {
	return filepath.Join(c.PeerDir(i), fmt.Sprintf("peer%d.png", i))
}
