package runner

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_LongestPrefixWins(t *testing.T) {
	f := NewFake().
		On("docker", "generic", nil).
		On("docker ps", "listing", nil)

	out, err := f.Run(context.Background(), "docker", "ps", "-a")
	require.NoError(t, err)
	assert.Equal(t, "listing", out)

	out, err = f.Run(context.Background(), "docker", "rm", "wireguard")
	require.NoError(t, err)
	assert.Equal(t, "generic", out)
}

func TestFake_PrefixMatchesWholeWords(t *testing.T) {
	f := NewFake().Fail("sysctl -n net.ipv4.ip_forward", "")

	_, err := f.Run(context.Background(), "sysctl", "-n", "net.ipv4.ip_forward_update_priority")
	assert.NoError(t, err)

	_, err = f.Run(context.Background(), "sysctl", "-n", "net.ipv4.ip_forward")
	assert.Error(t, err)
}

func TestFake_QueuedResponsesStickOnLast(t *testing.T) {
	f := NewFake().
		Fail("iptables -C", "").
		On("iptables -C", "", nil)

	_, err := f.Run(context.Background(), "iptables", "-C", "INPUT")
	assert.Error(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.Run(context.Background(), "iptables", "-C", "INPUT")
		assert.NoError(t, err)
	}
}

func TestFake_RecordsCalls(t *testing.T) {
	f := NewFake()
	_, _ = f.Run(context.Background(), "ufw", "allow", "51820/udp")
	_, _ = f.Run(context.Background(), "ufw", "status")

	assert.Len(t, f.Calls(), 2)
	assert.True(t, f.Called("ufw allow"))
	assert.False(t, f.Called("firewall-cmd"))
	assert.Equal(t, "ufw allow 51820/udp", f.CallsTo("ufw allow")[0].String())
}

func TestFake_Missing(t *testing.T) {
	f := NewFake().Missing("ufw")

	_, err := f.LookPath("ufw")
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.False(t, Has(f, "ufw"))
	assert.True(t, Has(f, "docker"))
}
