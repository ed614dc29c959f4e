package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration resolves one duration-valued config field. Values are Go duration
// strings ("2m", "45s"); an empty or zero value falls back to def, so every
// engine knob can be omitted from the file.
func Duration(field, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s: %q is negative", field, raw)
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
