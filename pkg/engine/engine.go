// Package engine evaluates mend scripts. A script is Lisp run in a
// sandboxed zygomys interpreter; its builtins build solids with the
// geometry kernel, turn them into scene meshes, punch holes into them and
// repair them. Each evaluation gets a fresh interpreter and a fresh scene.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/mend/pkg/holes"
	"github.com/chazu/mend/pkg/kernel"
	"github.com/chazu/mend/pkg/kernel/sdfx"
	"github.com/chazu/mend/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
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

// Session is everything a script produced: the scene it built, the meshes
// it created in creation order, and the report of every repair it ran.
type Session struct {
	Scene   *scene.Scene
	Meshes  []kernel.MeshID
	Reports []*holes.Report
}

func newSession() *Session {
	return &Session{Scene: scene.New()}
}

// Engine runs scripts. It is safe for concurrent use.
type Engine struct {
	kernel  kernel.Kernel
	repair  holes.Options
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithKernel sets the geometry kernel used by solid builtins.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) { e.kernel = k }
}

// WithRepairOptions sets the options repair-holes runs with.
func WithRepairOptions(o holes.Options) Option {
	return func(e *Engine) { e.repair = o }
}

// WithTimeout bounds a single evaluation. Non-positive values keep
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine returns an engine using the sdfx kernel and default repair
// options unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		kernel:  sdfx.New(),
		repair:  holes.DefaultOptions(),
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs source and returns the session it produced.
//
// Return semantics:
//   - On success: session, nil, nil
//   - On parse or runtime errors in the script: nil, eval errors, nil
//   - On timeout, panic or a superseded run: nil, nil, error
func (e *Engine) Evaluate(source string) (*Session, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{session: s, errors: evalErrs, err: err}
	}()

	return e.wait(ch, gen)
}

func (e *Engine) evaluate(source string) (*Session, []EvalError, error) {
	s := newSession()
	if strings.TrimSpace(source) == "" {
		return s, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, &builtins{kernel: e.kernel, repair: e.repair, session: s})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return s, nil, nil
}

// linePattern matches zygomys errors of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, pulling out
// a line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
