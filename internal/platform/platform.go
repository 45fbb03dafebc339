// Package platform defines the target platforms the wizard exports for and
// their output dimensions.
package platform

import "fmt"

// Spec describes a target platform's output constraints.
type Spec struct {
	Name           string `json:"name"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Aspect         string `json:"aspect"`
	MaxDurationSec int    `json:"max_duration_sec"`
}

// Portrait reports whether the platform output is taller than wide.
func (s Spec) Portrait() bool { return s.Height > s.Width }

var specs = make(map[string]Spec)

// Register adds a platform to the registry.
func Register(s Spec) {
	specs[s.Name] = s
}

// Get returns a platform by name.
func Get(name string) (Spec, error) {
	s, ok := specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("unsupported platform: %s", name)
	}
	return s, nil
}

// Supported returns the registered platform specs.
func Supported() []Spec {
	out := make([]Spec, 0, len(specs))
	for _, s := range specs {
		out = append(out, s)
	}
	return out
}
