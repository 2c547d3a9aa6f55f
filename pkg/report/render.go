package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"wg-deploy/pkg/model"
)

// Render writes a human readable summary of r.
func Render(w io.Writer, r model.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	line := func(k, v string) { fmt.Fprintf(tw, "%s\t%s\n", k, v) }

	line("Host:", r.Host)
	line("Endpoint:", fmt.Sprintf("%s:%d/udp", r.ServerAddress, r.Port))
	line("Peers:", fmt.Sprint(r.Peers))
	line("Config dir:", r.ConfigDir)

	state := "not found"
	if r.Container.ID != "" {
		state = "stopped"
		if r.Container.Running {
			state = "running"
		}
		state = fmt.Sprintf("%s (%s)", state, shortID(r.Container.ID))
	}
	line("Container:", fmt.Sprintf("%s %s", r.Container.Name, state))

	keys := make([]string, 0, len(r.Sysctl))
	for k := range r.Sysctl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line(k+":", r.Sysctl[k])
	}

	if r.Interface != nil {
		line("Interface:", fmt.Sprintf("%s port %d, %d peer(s)", r.Interface.Name, r.Interface.ListenPort, r.Interface.Peers))
		if r.Interface.PublicKey != "" {
			line("Server public key:", r.Interface.PublicKey)
		}
	} else {
		line("Interface:", "unavailable")
	}

	if r.ProfileFound {
		line("Peer 1 profile:", r.PeerProfile)
		line("Peer 1 QR code:", r.PeerImage)
		if r.Endpoint != "" {
			line("Client endpoint:", r.Endpoint)
		}
		if len(r.AllowedIPs) > 0 {
			line("Client routes:", strings.Join(r.AllowedIPs, ", "))
		}
	} else {
		line("Peer 1 profile:", "pending ("+r.PeerProfile+")")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
