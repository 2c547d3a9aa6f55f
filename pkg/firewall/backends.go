package firewall

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"wg-deploy/pkg/runner"
)

type ufw struct {
	run runner.Runner
}

func (b *ufw) Name() string { return "ufw" }

func (b *ufw) Active(ctx context.Context) bool {
	if !runner.Has(b.run, "ufw") {
		return false
	}
	out, err := b.run.Run(ctx, "ufw", "status")
	return err == nil && strings.Contains(out, "Status: active")
}

// ufw skips rules it already has, so no check is needed.
func (b *ufw) AllowUDP(ctx context.Context, port int) error {
	_, err := b.run.Run(ctx, "ufw", "allow", fmt.Sprintf("%d/udp", port))
	return err
}

type firewalld struct {
	run runner.Runner
}

func (b *firewalld) Name() string { return "firewalld" }

func (b *firewalld) Active(ctx context.Context) bool {
	if !runner.Has(b.run, "firewall-cmd") {
		return false
	}
	_, err := b.run.Run(ctx, "firewall-cmd", "--state")
	return err == nil
}

func (b *firewalld) AllowUDP(ctx context.Context, port int) error {
	if _, err := b.run.Run(ctx, "firewall-cmd", "--permanent", fmt.Sprintf("--add-port=%d/udp", port)); err != nil {
		return err
	}
	_, err := b.run.Run(ctx, "firewall-cmd", "--reload")
	return err
}

type iptables struct {
	run runner.Runner
	log *zap.Logger
}

func (b *iptables) Name() string { return "iptables" }

func (b *iptables) Active(_ context.Context) bool {
	return runner.Has(b.run, "iptables")
}

func (b *iptables) AllowUDP(ctx context.Context, port int) error {
	rule := []string{"INPUT", "-p", "udp", "--dport", strconv.Itoa(port), "-j", "ACCEPT"}
	inserted, err := b.ensureRule(ctx, rule)
	if err != nil {
		return err
	}
	if inserted {
		return b.persist(ctx)
	}
	return nil
}

// ensureRule inserts rule only when an identical one is not already present.
func (b *iptables) ensureRule(ctx context.Context, rule []string) (bool, error) {
	if _, err := b.run.Run(ctx, "iptables", append([]string{"-C"}, rule...)...); err == nil {
		b.log.Debug("iptables rule already present", zap.Strings("rule", rule))
		return false, nil
	}
	if _, err := b.run.Run(ctx, "iptables", append([]string{"-I"}, rule...)...); err != nil {
		return false, fmt.Errorf("insert %v: %w", rule, err)
	}
	return true, nil
}

// persist saves the rule set when netfilter-persistent is installed.
func (b *iptables) persist(ctx context.Context) error {
	if !runner.Has(b.run, "netfilter-persistent") {
		return nil
	}
	if _, err := b.run.Run(ctx, "netfilter-persistent", "save"); err != nil {
		return fmt.Errorf("rule inserted but not persisted: %w", err)
	}
	return nil
}
