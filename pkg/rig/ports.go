package rig

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name    string
	USB     bool
	VID     string
	PID     string
	Product string
}

// String returns a one-line description for port pickers.
func (p PortInfo) String() string {
	if !p.USB {
		return p.Name
	}
	desc := fmt.Sprintf("%s (USB %s:%s", p.Name, p.VID, p.PID)
	if p.Product != "" {
		desc += " " + p.Product
	}
	return desc + ")"
}

// Ports lists serial ports, USB adapters first.
func Ports() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		// Skip Bluetooth ports on macOS
		if strings.Contains(d.Name, "Bluetooth") {
			continue
		}
		ports = append(ports, PortInfo{
			Name:    d.Name,
			USB:     d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Product: d.Product,
		})
	}
	sortPorts(ports)
	return ports, nil
}

func sortPorts(ports []PortInfo) {
	sort.SliceStable(ports, func(i, j int) bool {
		if ports[i].USB != ports[j].USB {
			return ports[i].USB
		}
		return ports[i].Name < ports[j].Name
	})
}
