package wireguard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peerProfile = `[Interface]
Address = 10.13.13.2
PrivateKey = cGVlci1wcml2YXRlLWtleS1ub3QtcmVhbA==
ListenPort = 51820
DNS = 10.13.13.1

[Peer]
PublicKey = c2VydmVyLXB1YmxpYy1rZXktbm90LXJlYWw=
PresharedKey = cHNrLW5vdC1yZWFs
# generated by the image
Endpoint = 203.0.113.5:51820
AllowedIPs = 0.0.0.0/0, ::/0
`

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile(strings.NewReader(peerProfile))
	require.NoError(t, err)
	assert.Equal(t, Profile{
		Address:    "10.13.13.2",
		DNS:        "10.13.13.1",
		PublicKey:  "c2VydmVyLXB1YmxpYy1rZXktbm90LXJlYWw=",
		Endpoint:   "203.0.113.5:51820",
		AllowedIPs: []string{"0.0.0.0/0", "::/0"},
	}, p)
}

func TestParseProfile_Malformed(t *testing.T) {
	_, err := ParseProfile(strings.NewReader("[Interface]\nAddress\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestReadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer1.conf")
	require.NoError(t, os.WriteFile(path, []byte(peerProfile), 0o600))
	p, err := ReadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.5:51820", p.Endpoint)

	_, err = ReadProfile(filepath.Join(t.TempDir(), "absent.conf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseShow(t *testing.T) {
	out := `interface: wg0
  public key: c2VydmVyLXB1YmxpYy1rZXktbm90LXJlYWw=
  private key: (hidden)
  listening port: 51820

peer: cGVlcjE=
  preshared key: (hidden)
  allowed ips: 10.13.13.2/32

peer: cGVlcjI=
  preshared key: (hidden)
  allowed ips: 10.13.13.3/32
`
	st := ParseShow(out)
	assert.Equal(t, "wg0", st.Name)
	assert.Equal(t, "c2VydmVyLXB1YmxpYy1rZXktbm90LXJlYWw=", st.PublicKey)
	assert.Equal(t, 51820, st.ListenPort)
	assert.Equal(t, 2, st.Peers)
	assert.Equal(t, out, st.Raw)
}

func TestParseShow_BadPort(t *testing.T) {
	st := ParseShow("interface: wg0\n  listening port: off\n")
	assert.Equal(t, "wg0", st.Name)
	assert.Zero(t, st.ListenPort)
}
