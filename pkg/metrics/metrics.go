package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wg-deploy/pkg/model"
)

// Recorder collects per-run metrics for the node_exporter textfile collector.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.GaugeVec
	stageStatus   *prometheus.GaugeVec
	warnings      prometheus.Counter
	lastSuccess   prometheus.Gauge
	lastRun       prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wg_deploy_stage_duration_seconds",
				Help: "Wall time of each stage in the last run.",
			},
			[]string{"stage"},
		),
		stageStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wg_deploy_stage_status",
				Help: "Outcome of each stage in the last run. Always 1 for the observed status.",
			},
			[]string{"stage", "status"},
		),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wg_deploy_warnings_total",
			Help: "Stages that completed with a warning in the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wg_deploy_last_run_success",
			Help: "1 if the last run finished without a fatal stage.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wg_deploy_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.stageDuration, r.stageStatus, r.warnings, r.lastSuccess, r.lastRun)
	return r
}

func (r *Recorder) ObserveStage(rec model.StageRecord) {
	r.stageDuration.WithLabelValues(rec.Name).Set(rec.Duration.Seconds())
	r.stageStatus.WithLabelValues(rec.Name, rec.Status).Set(1)
	if rec.Status == "warning" {
		r.warnings.Inc()
	}
}

func (r *Recorder) Finish(success bool, at time.Time) {
	if success {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the metrics atomically to path, which normally lives
// in node_exporter's --collector.textfile.directory.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics mkdir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics textfile: %w", err)
	}
	return nil
}
