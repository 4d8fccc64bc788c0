package registry

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// powerSchemes maps friendly names to the Windows built-in scheme GUIDs.
var powerSchemes = map[string]string{
	"high_performance": "8c5e7fda-e8bf-4a96-9a85-a6e23a8c635c",
	"balanced":         "381b4222-f694-41f0-9685-ff5bb260df2e",
	"power_saver":      "a1841308-3541-4fab-bc81-f71556f20b4a",
}

// PowerSchemes returns the known scheme names, sorted.
func PowerSchemes() []string {
	names := make([]string, 0, len(powerSchemes))
	for name := range powerSchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetPowerScheme activates a named power scheme via powercfg.
func (m *Manager) SetPowerScheme(ctx context.Context, scheme string) error {
	guid, ok := powerSchemes[scheme]
	if !ok {
		return fmt.Errorf("unknown power scheme: %s", scheme)
	}
	if !m.Available() {
		return ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, "powercfg", "/setactive", guid)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("powercfg /setactive %s: %w: %s", scheme, err, strings.TrimSpace(string(out)))
	}

	m.logger.Info("power scheme set", "scheme", scheme)
	return nil
}
