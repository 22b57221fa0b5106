package construct

import (
	"fmt"
	"strings"
)

// ParseArgs tokenizes command-line style arguments into layer entries.
// Recognized forms:
//
//	--key=value
//	--key value
//	--flag          (no value: boolean true)
//
// Keys are dot-delimited paths and may contain the "..." wildcard. A value
// starting with "@" is a reference to another path ("@model.size"); "\@"
// escapes a literal leading at-sign. All other values stay cast-pending
// strings; casting to the field type happens during construction.
func ParseArgs(args []string) (map[string]Input, error) {
	entries := make(map[string]Input)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument %q: expected --key", arg)
		}

		content := strings.TrimPrefix(arg, "--")
		if content == "" {
			// "--" separator
			i++
			continue
		}

		var key, value string
		if eq := strings.IndexByte(content, '='); eq >= 0 {
			key = content[:eq]
			value = content[eq+1:]
			i++
		} else {
			key = content
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				value = "true"
				i++
			} else {
				value = args[i+1]
				i += 2
			}
		}

		if err := validateKey(key); err != nil {
			return nil, err
		}
		if _, dup := entries[key]; dup {
			return nil, fmt.Errorf("key %q supplied twice", key)
		}
		entries[key] = parseValue(value)
	}
	return entries, nil
}

// parseValue classifies a raw argument value.
func parseValue(value string) Input {
	switch {
	case strings.HasPrefix(value, "@"):
		return Reference{Target: value[1:]}
	case strings.HasPrefix(value, `\@`):
		return Literal{Raw: value[1:]}
	default:
		return Literal{Raw: value}
	}
}
