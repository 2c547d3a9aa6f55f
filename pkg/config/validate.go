package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"wg-deploy/pkg/model"
)

// ValidationError reports a configuration value that cannot be deployed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks a merged configuration before anything touches the host.
func Validate(cfg model.DeploymentConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{Field: "port", Reason: fmt.Sprintf("%d is outside 1-65535", cfg.Port)}
	}
	if cfg.Peers < 1 {
		return &ValidationError{Field: "peers", Reason: fmt.Sprintf("%d, need at least one peer", cfg.Peers)}
	}
	if !filepath.IsAbs(cfg.ConfigDir) {
		return &ValidationError{Field: "config dir", Reason: fmt.Sprintf("%q is not an absolute path", cfg.ConfigDir)}
	}
	if strings.TrimSpace(cfg.ContainerName) == "" {
		return &ValidationError{Field: "container name", Reason: "empty"}
	}
	if strings.TrimSpace(cfg.Image) == "" {
		return &ValidationError{Field: "image", Reason: "empty"}
	}
	if cfg.ServerAddress != "" && !validAddress(cfg.ServerAddress) {
		return &ValidationError{Field: "server address", Reason: fmt.Sprintf("%q is neither an IP nor a hostname", cfg.ServerAddress)}
	}
	return nil
}

// validAddress accepts an IP literal or a DNS hostname.
func validAddress(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	if s == "" || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(s, "."), ".") {
		if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
				return false
			}
		}
	}
	return true
}
