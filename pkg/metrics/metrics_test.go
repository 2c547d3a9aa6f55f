package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wg-deploy/pkg/model"
)

func TestRecorder_Textfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveStage(model.StageRecord{Name: "sysctl", Status: "ok", Duration: 1500 * time.Millisecond})
	r.ObserveStage(model.StageRecord{Name: "firewall", Status: "warning", Duration: 200 * time.Millisecond})
	r.ObserveStage(model.StageRecord{Name: "readiness", Status: "warning"})
	r.Finish(true, time.Unix(1767225600, 0))

	path := filepath.Join(t.TempDir(), "textfile", "wg_deploy.prom")
	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)

	assert.Contains(t, out, `wg_deploy_stage_duration_seconds{stage="sysctl"} 1.5`)
	assert.Contains(t, out, `wg_deploy_stage_status{stage="firewall",status="warning"} 1`)
	assert.Contains(t, out, "wg_deploy_warnings_total 2")
	assert.Contains(t, out, "wg_deploy_last_run_success 1")
	assert.Contains(t, out, "wg_deploy_last_run_timestamp_seconds 1.7672256e+09")
}

func TestRecorder_MetricNames(t *testing.T) {
	mfs, err := NewRecorder().registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.True(t, strings.HasPrefix(mf.GetName(), "wg_deploy_"), mf.GetName())
		assert.NotEmpty(t, mf.GetHelp(), mf.GetName())
	}
}

func TestRecorder_Failure(t *testing.T) {
	r := NewRecorder()
	r.Finish(false, time.Now())
	path := filepath.Join(t.TempDir(), "wg_deploy.prom")
	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "wg_deploy_last_run_success 0")
}
