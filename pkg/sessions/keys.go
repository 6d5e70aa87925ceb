package sessions

import (
	"sort"

	"github.com/dairui1/vibetunnel/errors"
)

// namedKeys maps key names accepted by SendKey to the bytes a terminal sends.
var namedKeys = map[string]string{
	"enter":       "\r",
	"tab":         "\t",
	"escape":      "\x1b",
	"backspace":   "\x7f",
	"ctrl_c":      "\x03",
	"ctrl_d":      "\x04",
	"ctrl_z":      "\x1a",
	"arrow_up":    "\x1b[A",
	"arrow_down":  "\x1b[B",
	"arrow_right": "\x1b[C",
	"arrow_left":  "\x1b[D",
}

// KeySequence returns the byte sequence for a named key.
func KeySequence(key string) ([]byte, error) {
	seq, ok := namedKeys[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown key: "+key).
			WithDetail("key", key).
			WithDetail("known", KeyNames())
	}
	return []byte(seq), nil
}

// KeyNames lists the supported key names in sorted order.
func KeyNames() []string {
	names := make([]string, 0, len(namedKeys))
	for name := range namedKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
