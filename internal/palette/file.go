package palette

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// keyDelimiter replaces viper's "." so that dotted token names stay single
// keys.
const keyDelimiter = "::"

// LoadFile reads palette overrides from a YAML, TOML or JSON file:
//
//	schemes:
//	  light:
//	    cros.sys.illo.base: "#FFFFFFFF"
//	  dark:
//	    --cros-sys-illo-base: "#202124FF"
//
// Keys may be tokens or CSS variables.
func LoadFile(path string) (map[string]Palette, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read palette %s: %w", path, err)
	}

	raw := v.GetStringMap("schemes")
	if len(raw) == 0 {
		return nil, fmt.Errorf("palette %s defines no schemes", path)
	}

	out := make(map[string]Palette, len(raw))
	for scheme := range raw {
		colors := v.GetStringMapString("schemes" + keyDelimiter + scheme)
		p := make(Palette, len(colors))
		for name, color := range colors {
			if strings.TrimSpace(color) == "" {
				return nil, fmt.Errorf("palette %s: scheme %s: empty color for %s", path, scheme, name)
			}
			p.Set(name, color)
		}
		out[scheme] = p
	}
	return out, nil
}
