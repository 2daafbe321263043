package source

import (
	"fmt"
	"os"
	"path/filepath"
)

// OpenReplay pumps a raw capture file. End of file stops the pump.
func OpenReplay(path string) (*Pump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay %s: %w", path, err)
	}
	return NewPump(f, PumpConfig{Name: filepath.Base(path)}), nil
}
