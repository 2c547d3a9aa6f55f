package wireguard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Profile is the subset of a wg-quick client profile the report shows.
type Profile struct {
	Address    string
	DNS        string
	PublicKey  string // server public key from the [Peer] section
	Endpoint   string
	AllowedIPs []string
	Keepalive  string
}

// ParseProfile reads a wg-quick style profile. Unknown keys are ignored and
// the private key is never retained.
func ParseProfile(r io.Reader) (Profile, error) {
	var p Profile
	section := ""
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.Trim(line, "[]"))
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return Profile{}, fmt.Errorf("line %d: expected key = value", n)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch section + "." + key {
		case "interface.address":
			p.Address = val
		case "interface.dns":
			p.DNS = val
		case "peer.publickey":
			p.PublicKey = val
		case "peer.endpoint":
			p.Endpoint = val
		case "peer.allowedips":
			for _, ip := range strings.Split(val, ",") {
				if ip = strings.TrimSpace(ip); ip != "" {
					p.AllowedIPs = append(p.AllowedIPs, ip)
				}
			}
		case "peer.persistentkeepalive":
			p.Keepalive = val
		}
	}
	if err := sc.Err(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func ReadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, err
	}
	defer f.Close()
	p, err := ParseProfile(f)
	if err != nil {
		return Profile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}
