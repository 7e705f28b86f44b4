package env

import (
	"context"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver expands placeholders. It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	funcs     map[string]Func
	lookupEnv func(string) (string, bool)
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
		funcs:     defaultFuncs(time.Now),
		lookupEnv: os.LookupEnv,
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

// LoadFile adds the variables of a dotenv file.
func (r *Resolver) LoadFile(path string) error {
	vars, err := LoadDotEnv(path)
	if err != nil {
		return err
	}
	r.SetVariables(vars)
	return nil
}

// Expand replaces every placeholder it can resolve. Unresolved ones are
// kept verbatim and logged as warnings.
func (r *Resolver) Expand(ctx context.Context, text string) string {
	expanded, unresolved := r.Resolve(text)
	for _, name := range unresolved {
		zerolog.Ctx(ctx).Warn().Str("placeholder", name).Msg("Unresolved placeholder left as written")
	}
	return expanded
}

// Resolve expands text and reports the placeholders it could not resolve.
func (r *Resolver) Resolve(text string) (string, []string) {
	var unresolved []string
	expanded := variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.lookup(expr); ok {
			return val
		}
		unresolved = append(unresolved, expr)
		return match
	})
	return expanded, unresolved
}

func (r *Resolver) lookup(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		return r.lookupEnv(name)
	}

	if m := funcCallPattern.FindStringSubmatch(expr); m != nil {
		fn, ok := r.funcs[m[1]]
		if !ok {
			return "", false
		}
		return fn(splitArgs(m[2])), true
	}

	r.mu.RLock()
	val, ok := r.variables[expr]
	r.mu.RUnlock()
	if ok {
		return val, true
	}
	return r.lookupEnv(expr)
}
