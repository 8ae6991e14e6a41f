package layout

import (
	_ "embed"
	"fmt"

	"github.com/dasdy/xkbstate/xkb"
)

//go:embed default.yaml
var defaultDocument []byte

// Default assembles the built-in keymap: a US pc105 core with a Russian
// second group, toggled by the right Alt key.
func Default() (*xkb.Keymap, error) {
	km, err := LoadBytes(defaultDocument)
	if err != nil {
		return nil, fmt.Errorf("could not load built-in keymap: %w", err)
	}
	return km, nil
}
