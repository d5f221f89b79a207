// Package native models the native layer the bridge talks to: named
// functions that take JSON-compatible arguments and return a JSON object.
//
// Every call crosses a boundary. Arguments and results are encoded and
// decoded with the registry's envelope codec, so only values that survive a
// JSON-style round trip ever reach the other side. Binary data must travel as
// blob descriptors.
//
// A result object containing an "error" string is an error payload, with an
// optional "code" (string or integer). Callers must check for it before
// treating the object as a success payload.
package native

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/MrF0o/jhp/codec"
)

// ErrNotLoaded is returned when a function is called whose extension was
// never loaded into the registry.
var ErrNotLoaded = errors.New("native: extension not loaded")

// Func is one native entry point. It receives decoded arguments and returns
// a result object; failures are reported in-band with ErrorPayload.
type Func func(ctx context.Context, args []any) map[string]any

// Module is a named set of functions, the unit an extension is loaded as.
type Module struct {
	Name  string
	Funcs map[string]Func
}

// Options tune a Registry. The zero value is usable.
type Options struct {
	Envelope   codec.Codec[any] // nil => codec.JSON
	MaxPayload int              // bytes a single result may take; 0 => unlimited
}

// Registry resolves function names to loaded native functions.
// It is safe for concurrent use.
type Registry struct {
	envelope codec.Codec[any]

	mu      sync.RWMutex
	funcs   map[string]Func
	modules map[string]*Module
}

func NewRegistry(opts Options) *Registry {
	env := opts.Envelope
	if env == nil {
		env = codec.JSON[any]{}
	}
	if opts.MaxPayload > 0 {
		env = codec.LimitCodec[any]{Inner: env, MaxDecode: opts.MaxPayload}
	}
	return &Registry{
		envelope: env,
		funcs:    make(map[string]Func),
		modules:  make(map[string]*Module),
	}
}

// Load registers every function of m. Loading a module twice is a no-op;
// a function name already owned by another module is an error.
func (r *Registry) Load(m *Module) error {
	if m == nil || m.Name == "" {
		return errors.New("native: module name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[m.Name]; ok {
		return nil
	}
	for name := range m.Funcs {
		if _, ok := r.funcs[name]; ok {
			return fmt.Errorf("native: function %q already registered", name)
		}
	}
	for name, f := range m.Funcs {
		r.funcs[name] = f
	}
	r.modules[m.Name] = m
	return nil
}

// Loaded reports whether the module called name has been loaded.
func (r *Registry) Loaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

// Has reports whether fn is callable.
func (r *Registry) Has(fn string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[fn]
	return ok
}

// Functions lists callable function names in sorted order.
func (r *Registry) Functions() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Call invokes fn with args. The returned error covers only the boundary
// itself (missing function, values that cannot cross); an error payload
// from the function is returned as a normal result.
func (r *Registry) Call(ctx context.Context, fn string, args ...any) (map[string]any, error) {
	r.mu.RLock()
	f, ok := r.funcs[fn]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, fn)
	}

	if args == nil {
		args = []any{}
	}
	in, err := r.cross(args)
	if err != nil {
		return nil, fmt.Errorf("native: %s args: %w", fn, err)
	}
	inArgs, ok := in.([]any)
	if !ok {
		return nil, fmt.Errorf("native: %s args decoded as %T", fn, in)
	}

	res := f(ctx, inArgs)
	if res == nil {
		return map[string]any{}, nil
	}
	out, err := r.cross(res)
	if err != nil {
		return nil, fmt.Errorf("native: %s result: %w", fn, err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("native: %s returned %T, want object", fn, out)
	}
	return m, nil
}

func (r *Registry) cross(v any) (any, error) {
	b, err := r.envelope.Encode(v)
	if err != nil {
		return nil, err
	}
	out, err := r.envelope.Decode(b)
	if err != nil {
		return nil, err
	}
	return Normalize(out), nil
}

// ErrorPayload builds the in-band error object. code may be nil.
func ErrorPayload(msg string, code any) map[string]any {
	m := map[string]any{"error": msg}
	if code != nil {
		m["code"] = code
	}
	return m
}

// PayloadError extracts the error message and code from m, if m is an
// error payload.
func PayloadError(m map[string]any) (msg string, code any, ok bool) {
	raw, present := m["error"]
	if !present || raw == nil {
		return "", nil, false
	}
	switch e := raw.(type) {
	case string:
		msg = e
	default:
		msg = fmt.Sprint(e)
	}
	switch c := m["code"].(type) {
	case nil:
	case string:
		code = c
	default:
		if n, ok := AsInt64(c); ok {
			code = n
		} else {
			code = fmt.Sprint(c)
		}
	}
	return msg, code, true
}
