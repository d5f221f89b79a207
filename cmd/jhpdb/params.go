package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/MrF0o/jhp/codec"
	"github.com/MrF0o/jhp/native"
)

// parseValue reads one parameter given on the command line:
//
//	@path        file contents, bound as a BLOB
//	blob:<b64>   base64 text, bound as a BLOB
//	<json>       a JSON literal (42, 1.5, null, true, "text")
//	anything else is bound as TEXT
func parseValue(s string) (any, error) {
	switch {
	case strings.HasPrefix(s, "@"):
		b, err := os.ReadFile(s[1:])
		if err != nil {
			return nil, err
		}
		return b, nil
	case strings.HasPrefix(s, "blob:"):
		buf, err := codec.FromBase64(s[len("blob:"):])
		if err != nil {
			return nil, err
		}
		return buf, nil
	}
	if !json.Valid([]byte(s)) {
		return s, nil
	}
	v, err := codec.JSON[any]{}.Decode([]byte(s))
	if err != nil {
		return s, nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return s, nil
	}
	return native.Normalize(v), nil
}

// parseParams turns -p and -n flags into statement params. Mixing them is an
// error; neither yields nil.
func parseParams(positional, named []string) (any, error) {
	if len(positional) > 0 && len(named) > 0 {
		return nil, fmt.Errorf("use either --param or --named, not both")
	}
	if len(positional) > 0 {
		out := make([]any, len(positional))
		for i, p := range positional {
			v, err := parseValue(p)
			if err != nil {
				return nil, fmt.Errorf("param %d: %w", i+1, err)
			}
			out[i] = v
		}
		return out, nil
	}
	if len(named) > 0 {
		out := make(map[string]any, len(named))
		for _, kv := range named {
			k, raw, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return nil, fmt.Errorf("named param %q: want name=value", kv)
			}
			v, err := parseValue(raw)
			if err != nil {
				return nil, fmt.Errorf("named param %q: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	}
	return nil, nil
}
