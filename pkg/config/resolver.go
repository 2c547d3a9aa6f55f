package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wg-deploy/pkg/model"
	"wg-deploy/pkg/prompt"
)

// ErrMissingAddress means no server address was supplied, detected or entered.
var ErrMissingAddress = errors.New("server address could not be determined")

// Resolver validates a merged configuration and fills in the server address.
type Resolver struct {
	detector *AddressDetector
	prompt   prompt.Interactor
	log      *zap.Logger
}

func NewResolver(log *zap.Logger, detector *AddressDetector, p prompt.Interactor) *Resolver {
	return &Resolver{detector: detector, prompt: p, log: log}
}

// Resolve returns the final configuration. The server address is only
// looked up when none was supplied: detection endpoints first, then a single
// interactive prompt when a session is attached.
func (r *Resolver) Resolve(ctx context.Context, cfg model.DeploymentConfig) (model.DeploymentConfig, error) {
	if err := Validate(cfg); err != nil {
		return model.DeploymentConfig{}, err
	}
	if cfg.ServerAddress != "" {
		return cfg, nil
	}

	addr, detectErr := r.detector.Detect(ctx)
	if detectErr == nil {
		cfg.ServerAddress = addr
		return cfg, nil
	}
	r.log.Warn("public address detection failed", zap.Error(detectErr))

	if !r.prompt.Interactive() {
		return model.DeploymentConfig{}, fmt.Errorf("%w: %v", ErrMissingAddress, detectErr)
	}
	answer, err := r.prompt.Ask("Public IP or hostname clients should connect to")
	if err != nil {
		return model.DeploymentConfig{}, fmt.Errorf("%w: %v", ErrMissingAddress, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return model.DeploymentConfig{}, ErrMissingAddress
	}
	if !validAddress(answer) {
		return model.DeploymentConfig{}, &ValidationError{Field: "server address", Reason: fmt.Sprintf("%q is neither an IP nor a hostname", answer)}
	}
	cfg.ServerAddress = answer
	return cfg, nil
}
