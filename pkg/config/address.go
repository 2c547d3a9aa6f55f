package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AddressDetector asks external services for the host's public address.
type AddressDetector struct {
	endpoints []string
	timeout   time.Duration
	client    *http.Client
	log       *zap.Logger
}

func NewAddressDetector(log *zap.Logger, endpoints []string, timeout time.Duration) *AddressDetector {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &AddressDetector{
		endpoints: endpoints,
		timeout:   timeout,
		client:    &http.Client{},
		log:       log,
	}
}

// Detect queries the endpoints in order and returns the first usable answer.
// Each request is bounded by the detector timeout.
func (d *AddressDetector) Detect(ctx context.Context) (string, error) {
	if len(d.endpoints) == 0 {
		return "", errors.New("no address endpoints configured")
	}
	var errs error
	for _, ep := range d.endpoints {
		addr, err := d.fetch(ctx, ep)
		if err != nil {
			d.log.Debug("address endpoint failed", zap.String("endpoint", ep), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ep, err))
			continue
		}
		d.log.Info("detected public address", zap.String("endpoint", ep), zap.String("address", addr))
		return addr, nil
	}
	return "", errs
}

func (d *AddressDetector) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	// some services answer browsers with HTML
	req.Header.Set("User-Agent", "curl/8.5.0")
	req.Header.Set("Accept", "text/plain")
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	addr := strings.TrimSpace(string(b))
	if addr == "" {
		return "", errors.New("empty response")
	}
	if !validAddress(addr) {
		return "", fmt.Errorf("unusable response %q", truncate(addr, 64))
	}
	return addr, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
