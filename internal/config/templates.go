package config

import (
	"fmt"
	"os"
)

func Template() string {
	return defaultTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o600)
}

const defaultTemplate = `# upper bound on a framed payload; 0 removes the cap
max_payload_bytes = 67108864

[log]
level = "info"
timestamp = true
no_color = false

[metrics]
enabled = false
`
