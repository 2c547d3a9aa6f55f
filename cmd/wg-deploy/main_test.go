package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wg-deploy/pkg/model"
	"wg-deploy/pkg/pipeline"
	"wg-deploy/pkg/preflight"
	"wg-deploy/pkg/prompt"
	"wg-deploy/pkg/runner"
)

type denyAll struct{}

func (denyAll) Check() error { return preflight.ErrPrivilege }

type allowAll struct{}

func (allowAll) Check() error { return nil }

type noDevice struct{}

func (noDevice) Device(string) (*model.InterfaceState, error) { return nil, os.ErrNotExist }

func testHost(t *testing.T, fake *runner.Fake) host {
	t.Helper()
	proc := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(proc, "net"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(proc, "net", "udp"),
		[]byte("   sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode ref pointer drops\n"), 0o644))
	return host{
		run:        fake,
		procfs:     proc,
		osRelease:  filepath.Join(t.TempDir(), "os-release"),
		sysctlPath: filepath.Join(t.TempDir(), "99-wireguard.conf"),
		prompt:     &prompt.Scripted{},
		devices:    noDevice{},
		privilege:  denyAll{},
	}
}

func execute(t *testing.T, h host, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmdWith(&stdout, h)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := pipeline.ExitCode(root.ExecuteContext(context.Background()))
	return code, stdout.String(), stderr.String()
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd(&bytes.Buffer{})
	assert.Equal(t, "wg-deploy", root.Use)
	assert.True(t, root.SilenceUsage)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"deploy", "status", "history", "version"})
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := execute(t, testHost(t, runner.NewFake()), "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "wg-deploy version dev\n", out)
}

func TestDeployFlags(t *testing.T) {
	cmd := newDeployCmd(&options{}, &bytes.Buffer{})
	for _, tt := range []struct{ long, short string }{
		{"port", "p"}, {"peers", "n"}, {"server", "s"}, {"config-dir", "d"}, {"timezone", "t"}, {"yes", "y"},
	} {
		f := cmd.Flags().Lookup(tt.long)
		require.NotNil(t, f, tt.long)
		assert.Equal(t, tt.short, f.Shorthand, tt.long)
	}
}

func TestDeploy_NotRootIsPrecondition(t *testing.T) {
	fake := runner.NewFake()
	code, _, stderr := execute(t, testHost(t, fake),
		"deploy", "--env-file", "", "--journal", "", "--yes",
		"--server", "203.0.113.5", "--config-dir", t.TempDir())
	assert.Equal(t, pipeline.ExitPrecondition, code)
	assert.Contains(t, stderr, "insufficient privilege")
	assert.Empty(t, fake.Calls())
}

func TestDeploy_InvalidPort(t *testing.T) {
	code, _, _ := execute(t, testHost(t, runner.NewFake()),
		"deploy", "--env-file", "", "--journal", "", "--port", "70000", "--server", "203.0.113.5")
	assert.Equal(t, pipeline.ExitPrecondition, code)
}

func TestDeploy_ExplicitZeroIsRejected(t *testing.T) {
	for _, args := range [][]string{
		{"--port", "0"},
		{"-p", "0"},
		{"--peers", "0"},
	} {
		t.Run(args[0], func(t *testing.T) {
			fake := runner.NewFake()
			h := testHost(t, fake)
			h.privilege = allowAll{}
			argv := append([]string{"deploy", "--env-file", "", "--journal", "", "--yes",
				"--server", "203.0.113.5", "--config-dir", t.TempDir()}, args...)

			code, _, stderr := execute(t, h, argv...)
			assert.Equal(t, pipeline.ExitPrecondition, code)
			assert.Contains(t, stderr, "resolve-config: invalid")
			assert.False(t, fake.Called("sysctl"))
			assert.False(t, fake.Called("docker"))
			assert.NoFileExists(t, h.sysctlPath)
		})
	}
}

func TestDeploy_MissingConfigFile(t *testing.T) {
	code, _, stderr := execute(t, testHost(t, runner.NewFake()),
		"deploy", "--env-file", "", "--journal", "", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, pipeline.ExitPrecondition, code)
	assert.Contains(t, stderr, "absent.yaml")
}

func TestDeploy_UnknownFlag(t *testing.T) {
	code, _, _ := execute(t, testHost(t, runner.NewFake()), "deploy", "--bogus")
	assert.Equal(t, pipeline.ExitFailure, code)
}

func TestHistory_ListsJournaledRuns(t *testing.T) {
	h := testHost(t, runner.NewFake())
	db := filepath.Join(t.TempDir(), "journal.db")

	code, _, _ := execute(t, h, "history", "--journal", db)
	require.Equal(t, 0, code)

	code, _, _ = execute(t, h, "deploy", "--env-file", "", "--journal", db, "--yes",
		"--server", "203.0.113.5", "--config-dir", t.TempDir())
	require.Equal(t, pipeline.ExitPrecondition, code)

	code, out, _ := execute(t, h, "history", "--journal", db, "--stages")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "deploy")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "203.0.113.5:51820")
	assert.Contains(t, out, "privilege")
}

func TestHistory_JournalDisabled(t *testing.T) {
	code, _, _ := execute(t, testHost(t, runner.NewFake()), "history", "--journal", "")
	assert.Equal(t, pipeline.ExitFailure, code)
}

// consulWith serves a read-only Consul KV holding the given reports.
func consulWith(t *testing.T, reports ...model.Report) string {
	t.Helper()
	store := map[string][]byte{}
	for _, r := range reports {
		b, err := json.Marshal(r)
		require.NoError(t, err)
		store["wg-deploy/hosts/"+r.Host] = b
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/v1/kv/")
		w.Header().Set("X-Consul-Index", "7")
		w.Header().Set("X-Consul-LastContact", "0")
		w.Header().Set("X-Consul-KnownLeader", "true")
		v, ok := store[key]
		if r.Method != http.MethodGet || !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"Key":   key,
			"Value": base64.StdEncoding.EncodeToString(v),
		}})
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestStatus_FromInventory(t *testing.T) {
	addr := consulWith(t, model.Report{
		Host: "vpn-1", ServerAddress: "203.0.113.5", Port: 51820, Peers: 2,
	})

	t.Run("published host", func(t *testing.T) {
		fake := runner.NewFake()
		code, out, _ := execute(t, testHost(t, fake),
			"status", "--env-file", "", "--journal", "", "--consul-addr", addr, "--from-inventory", "vpn-1")
		require.Equal(t, 0, code)
		assert.Contains(t, out, "vpn-1")
		assert.Contains(t, out, "203.0.113.5:51820/udp")
		assert.Empty(t, fake.Calls())
	})

	t.Run("unknown host", func(t *testing.T) {
		code, _, stderr := execute(t, testHost(t, runner.NewFake()),
			"status", "--env-file", "", "--journal", "", "--consul-addr", addr, "--from-inventory", "vpn-9")
		assert.Equal(t, pipeline.ExitPrecondition, code)
		assert.Contains(t, stderr, `no report published for host "vpn-9"`)
	})

	t.Run("needs consul address", func(t *testing.T) {
		code, _, stderr := execute(t, testHost(t, runner.NewFake()),
			"status", "--env-file", "", "--journal", "", "--from-inventory", "vpn-1")
		assert.Equal(t, pipeline.ExitPrecondition, code)
		assert.Contains(t, stderr, "--consul-addr")
	})
}
