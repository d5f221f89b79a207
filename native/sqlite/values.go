package sqlite

import (
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/MrF0o/jhp/blob"
	"github.com/MrF0o/jhp/codec"
)

// bindArgs turns the params argument into driver arguments. An array binds
// positionally; an object binds by name with any leading ':', '@', '$' or
// '?' stripped from its keys. Anything else binds nothing.
func bindArgs(params any) []any {
	switch p := params.(type) {
	case []any:
		out := make([]any, len(p))
		for i, v := range p {
			out[i] = toSQL(v)
		}
		return out
	case map[string]any:
		out := make([]any, 0, len(p))
		for k, v := range p {
			name := strings.TrimLeft(k, ":@$?")
			if !validName(name) {
				continue
			}
			out = append(out, sql.Named(name, toSQL(v)))
		}
		return out
	default:
		return nil
	}
}

// database/sql only accepts names that start with a letter
func validName(name string) bool {
	for _, r := range name {
		return unicode.IsLetter(r)
	}
	return false
}

// toSQL maps one boundary value to a value SQLite can bind. Values with no
// SQLite equivalent bind as NULL.
func toSQL(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case int64, float64, string:
		return x
	case map[string]any:
		if b, ok := descriptorBytes(x); ok {
			return b
		}
		return nil
	default:
		return nil
	}
}

// descriptorBytes accepts the current {"data": ...} form and the older
// {"blob": ...} form.
func descriptorBytes(m map[string]any) ([]byte, bool) {
	if blob.IsDescriptor(m) {
		b, err := blob.ToBytes(m)
		return b, err == nil
	}
	if s, ok := m["blob"].(string); ok {
		b, err := codec.DecodeBase64(s)
		return b, err == nil
	}
	return nil, false
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(rows scanner, n int) ([]any, error) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		vals[i] = fromSQL(v)
	}
	return vals, nil
}

// fromSQL maps a scanned column value to its boundary form. BLOBs become
// descriptors.
func fromSQL(v any) any {
	switch x := v.(type) {
	case []byte:
		d, _ := blob.FromSource(codec.FromBytes(x), blob.EncodingBytes)
		return d.Map()
	case time.Time:
		return x.Format("2006-01-02 15:04:05.999999999-07:00")
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	default:
		return x
	}
}
