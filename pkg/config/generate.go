package config

import (
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"dotconf/pkg/errors"
)

// GenerateConfigContent returns the starter config file content: the
// annotated defaults with every value commented out, so the user only
// uncomments what they want to change.
func GenerateConfigContent() string {
	return commentOutConfigValues(string(defaultConfig))
}

// Render serializes the resolved configuration as TOML.
func Render(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot render configuration")
	}
	return data, nil
}

// commentOutConfigValues comments out all assignment lines, keeping
// comments, blank lines and section headers as they are.
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "", strings.HasPrefix(trimmed, "#"):
			result = append(result, line)
		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			result = append(result, line)
		default:
			result = append(result, "# "+line)
		}
	}
	return strings.Join(result, "\n")
}
