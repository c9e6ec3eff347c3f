package process

import (
	"time"
)

// Config declares an external command serving an invocation source.
type Config struct {
	// Name is the invocation source the command serves, e.g. "knowledge".
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	// Timeout bounds one call. Zero leaves it to the caller's context.
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Description string        `yaml:"description" json:"description"`
}
