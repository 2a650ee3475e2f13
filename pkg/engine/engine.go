// Package engine compiles height functions written in zygomys Lisp. A script
// is an expression in x and y, such as (+ x y), evaluated in a sandboxed
// interpreter and exposed to the generator as a grid.HeightFunc.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/integral/pkg/grid"
	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultSource is the height script of the default surface x + y.
const DefaultSource = "(+ x y)"

// heightFn is the name the script body is bound to inside the sandbox.
const heightFn = "height"

// EvalError represents a non-fatal error encountered during compilation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Compile creates a fresh sandboxed environment.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Compile turns a height script into a grid.HeightFunc.
//
// Return semantics:
//   - On success: returns the function + nil errors + nil error
//   - On parse/eval failure: returns nil + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
//
// An empty script compiles to grid.Sum.
func (e *Engine) Compile(source string) (grid.HeightFunc, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during compilation: %v", r)}
			}
		}()

		f, evalErrs, err := e.compile(source)
		ch <- evalResult{height: f, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// compile performs the zygomys work in a fresh sandbox.
func (e *Engine) compile(source string) (grid.HeightFunc, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return grid.Sum, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	registerBuiltins(env)

	// The body goes on its own line so parse errors keep the user's line
	// numbers, shifted by one.
	wrapped := fmt.Sprintf("(defn %s [x y]\n%s\n)", heightFn, preprocessSource(source))
	if err := env.LoadString(wrapped); err != nil {
		env.Stop()
		return nil, shiftLines(parseZygomysError(err), -1), nil
	}
	if _, err := env.Run(); err != nil {
		env.Stop()
		return nil, shiftLines(parseZygomysError(err), -1), nil
	}

	obj, found := env.FindObject(heightFn)
	fn, ok := obj.(*zygo.SexpFunction)
	if !found || !ok {
		env.Stop()
		return nil, []EvalError{{Message: "script did not define a height function"}}, nil
	}

	s := &script{env: env, fn: fn}

	// Evaluate both corners of the unit square so scripts that fail at
	// runtime are reported at compile time rather than as NaN heights.
	for _, p := range [][2]float64{{0, 0}, {1, 1}} {
		if _, err := s.eval(p[0], p[1]); err != nil {
			env.Stop()
			return nil, []EvalError{{
				Message: fmt.Sprintf("evaluating at (%g, %g): %s", p[0], p[1], err),
			}}, nil
		}
	}

	return withCallTimeout(s.eval, CallTimeout), nil, nil
}

// script is a compiled height function. The interpreter is not reentrant,
// so calls are serialized.
type script struct {
	mu  sync.Mutex
	env *zygo.Zlisp
	fn  *zygo.SexpFunction
}

func (s *script) eval(x, y float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.env.Apply(s.fn, []zygo.Sexp{&zygo.SexpFloat{Val: x}, &zygo.SexpFloat{Val: y}})
	if err != nil {
		return 0, err
	}
	return toFloat64(res)
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

func shiftLines(errs []EvalError, delta int) []EvalError {
	for i := range errs {
		if errs[i].Line > 0 {
			errs[i].Line += delta
			if errs[i].Line < 1 {
				errs[i].Line = 1
			}
		}
	}
	return errs
}
