package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"wg-deploy/pkg/model"
)

const hostPrefix = "wg-deploy/hosts/"

// Publisher keeps a copy of each host's report in Consul KV.
type Publisher struct {
	kv  *consulapi.KV
	log *zap.Logger
}

func NewPublisher(log *zap.Logger, addr string) (*Publisher, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Publisher{kv: cli.KV(), log: log}, nil
}

func Key(host string) string { return hostPrefix + host }

func (p *Publisher) Publish(ctx context.Context, r model.Report) error {
	if r.Host == "" {
		return errors.New("report has no host name")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	opts := (&consulapi.WriteOptions{}).WithContext(ctx)
	if _, err := p.kv.Put(&consulapi.KVPair{Key: Key(r.Host), Value: b}, opts); err != nil {
		return fmt.Errorf("publish %s: %w", Key(r.Host), err)
	}
	p.log.Info("report published", zap.String("key", Key(r.Host)))
	return nil
}

// Lookup fetches a published report. ok is false when the host never published.
func (p *Publisher) Lookup(ctx context.Context, host string) (model.Report, bool, error) {
	opts := (&consulapi.QueryOptions{}).WithContext(ctx)
	kv, _, err := p.kv.Get(Key(host), opts)
	if err != nil {
		return model.Report{}, false, fmt.Errorf("lookup %s: %w", Key(host), err)
	}
	if kv == nil {
		return model.Report{}, false, nil
	}
	var r model.Report
	if err := json.Unmarshal(kv.Value, &r); err != nil {
		return model.Report{}, false, fmt.Errorf("decode %s: %w", Key(host), err)
	}
	return r, true, nil
}
