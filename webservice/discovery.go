package webservice

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"

	"gifscreen/display"
)

// Advertise announces the service on the LAN so displays can find the
// download URL without configuration.
func (wm *WebMaster) Advertise() error {
	_, portStr, err := net.SplitHostPort(wm.config.Listen)
	if err != nil {
		return fmt.Errorf("listen address %q: %w", wm.config.Listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("listen port %q: %w", portStr, err)
	}

	d := wm.config.Discovery
	server, err := zeroconf.Register(wm.config.InstanceID, d.ServiceName, d.Domain, port, txtRecords(wm.store.Snapshot()), nil)
	if err != nil {
		return err
	}

	wm.mdnsMu.Lock()
	wm.mdns = server
	wm.mdnsMu.Unlock()
	slog.Info("mdns service registered", "instance", wm.config.InstanceID, "service", d.ServiceName, "port", port)
	return nil
}

// updateTXT is a display.Listener that keeps the advertised version current.
func (wm *WebMaster) updateTXT(snap display.Snapshot) {
	wm.mdnsMu.Lock()
	defer wm.mdnsMu.Unlock()
	if wm.mdns != nil {
		wm.mdns.SetText(txtRecords(snap))
	}
}

func (wm *WebMaster) shutdownMDNS() {
	wm.mdnsMu.Lock()
	defer wm.mdnsMu.Unlock()
	if wm.mdns != nil {
		wm.mdns.Shutdown()
		wm.mdns = nil
	}
}

func txtRecords(snap display.Snapshot) []string {
	return []string{
		"path=/download",
		"status=/status",
		"version=" + strconv.FormatUint(snap.Version, 10),
		"mode=" + snap.Mode.String(),
	}
}
