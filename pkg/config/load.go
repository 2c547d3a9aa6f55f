package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wg-deploy/pkg/model"
)

// Environment variables read by FromEnv.
const (
	EnvPort           = "WG_PORT"
	EnvPeers          = "WG_PEERS"
	EnvConfigDir      = "WG_CONFIG_DIR"
	EnvTimezone       = "TZ"
	EnvServerAddress  = "WG_SERVER_ADDRESS"
	EnvAutoConfirm    = "WG_AUTO_CONFIRM"
	EnvContainerName  = "WG_CONTAINER_NAME"
	EnvImage          = "WG_IMAGE"
	EnvPeerDNS        = "WG_PEER_DNS"
	EnvInternalSubnet = "WG_INTERNAL_SUBNET"
)

// For mocking in tests
var lookupEnv = os.LookupEnv

// Layer is one configuration source. PortSet and PeersSet record that the
// source named the value, so an explicit zero is kept and rejected by
// Validate rather than replaced by the layer below.
type Layer struct {
	model.DeploymentConfig
	PortSet  bool
	PeersSet bool
}

// Flags wraps command-line values; portSet and peersSet come from the flag
// set's Changed.
func Flags(cfg model.DeploymentConfig, portSet, peersSet bool) Layer {
	return Layer{DeploymentConfig: cfg, PortSet: portSet, PeersSet: peersSet}
}

// Load layers defaults, the optional YAML file, the optional .env file, the
// process environment and finally the flag overlay. Unset fields in a layer
// leave the layer below untouched.
func Load(file, dotenv string, flags Layer) (model.DeploymentConfig, error) {
	cfg := Default()

	if file != "" {
		fromFile, err := LoadFile(file)
		if err != nil {
			return model.DeploymentConfig{}, err
		}
		cfg = Merge(cfg, fromFile)
	}

	env, err := environment(dotenv)
	if err != nil {
		return model.DeploymentConfig{}, err
	}
	fromEnv, err := FromEnv(env)
	if err != nil {
		return model.DeploymentConfig{}, err
	}
	cfg = Merge(cfg, fromEnv)

	return Merge(cfg, flags), nil
}

// LoadFile reads a YAML configuration layer.
func LoadFile(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var l Layer
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l.DeploymentConfig); err != nil {
		if errors.Is(err, io.EOF) {
			return Layer{}, nil
		}
		return Layer{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return Layer{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	_, l.PortSet = keys["port"]
	_, l.PeersSet = keys["peers"]
	return l, nil
}

// environment merges the .env file (if present) under the process environment.
func environment(dotenv string) (map[string]string, error) {
	env := map[string]string{}
	if dotenv != "" {
		if _, err := os.Stat(dotenv); err == nil {
			vals, err := godotenv.Read(dotenv)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", dotenv, err)
			}
			env = vals
		}
	}
	for _, key := range []string{EnvPort, EnvPeers, EnvConfigDir, EnvTimezone, EnvServerAddress, EnvAutoConfirm, EnvContainerName, EnvImage, EnvPeerDNS, EnvInternalSubnet} {
		if v, ok := lookupEnv(key); ok && v != "" {
			env[key] = v
		}
	}
	return env, nil
}

// FromEnv builds a configuration layer from environment-style key/values.
func FromEnv(env map[string]string) (Layer, error) {
	var l Layer
	var err error
	if v := strings.TrimSpace(env[EnvPort]); v != "" {
		if l.Port, err = strconv.Atoi(v); err != nil {
			return Layer{}, &ValidationError{Field: EnvPort, Reason: fmt.Sprintf("not a number: %q", v)}
		}
		l.PortSet = true
	}
	if v := strings.TrimSpace(env[EnvPeers]); v != "" {
		if l.Peers, err = strconv.Atoi(v); err != nil {
			return Layer{}, &ValidationError{Field: EnvPeers, Reason: fmt.Sprintf("not a number: %q", v)}
		}
		l.PeersSet = true
	}
	if v := env[EnvAutoConfirm]; v != "" {
		if l.AutoConfirm, err = strconv.ParseBool(v); err != nil {
			return Layer{}, &ValidationError{Field: EnvAutoConfirm, Reason: fmt.Sprintf("not a boolean: %q", v)}
		}
	}
	l.ConfigDir = strings.TrimSpace(env[EnvConfigDir])
	l.Timezone = strings.TrimSpace(env[EnvTimezone])
	l.ServerAddress = strings.TrimSpace(env[EnvServerAddress])
	l.ContainerName = strings.TrimSpace(env[EnvContainerName])
	l.Image = strings.TrimSpace(env[EnvImage])
	l.PeerDNS = strings.TrimSpace(env[EnvPeerDNS])
	l.InternalSubnet = strings.TrimSpace(env[EnvInternalSubnet])
	return l, nil
}

// Merge overlays the fields a layer set onto base. Port and Peers follow the
// Set markers; strings follow non-emptiness. AutoConfirm can only be
// switched on by a layer, never off.
func Merge(base model.DeploymentConfig, overlay Layer) model.DeploymentConfig {
	merged := base
	if overlay.PortSet {
		merged.Port = overlay.Port
	}
	if overlay.PeersSet {
		merged.Peers = overlay.Peers
	}
	merged.ConfigDir = firstNonEmpty(overlay.ConfigDir, base.ConfigDir)
	merged.Timezone = firstNonEmpty(overlay.Timezone, base.Timezone)
	merged.ServerAddress = firstNonEmpty(overlay.ServerAddress, base.ServerAddress)
	merged.ContainerName = firstNonEmpty(overlay.ContainerName, base.ContainerName)
	merged.Image = firstNonEmpty(overlay.Image, base.Image)
	merged.PeerDNS = firstNonEmpty(overlay.PeerDNS, base.PeerDNS)
	merged.InternalSubnet = firstNonEmpty(overlay.InternalSubnet, base.InternalSubnet)
	merged.AutoConfirm = base.AutoConfirm || overlay.AutoConfirm
	return merged
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
