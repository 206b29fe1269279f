// Package jsengine evaluates JavaScript screen detectors.
//
// Scripts see a `screen` object bound to the snapshot under test:
//
//	screen.hasText("Welcome") && !screen.hasExactText("Login")
//
// A goja runtime is not safe for concurrent use, so every evaluation holds
// the engine lock.
package jsengine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
	"github.com/magnolia-collective/wellness-e2e/pkg/screen"
)

// EvalTimeout bounds a single script evaluation.
var EvalTimeout = time.Second

// Engine wraps a goja runtime with the screen helpers.
type Engine struct {
	runtime *goja.Runtime
	snap    *screen.Snapshot
	mu      sync.Mutex
}

// New creates a new JS engine instance.
func New() *Engine {
	e := &Engine{runtime: goja.New()}
	e.setupBuiltins()
	return e
}

// setupBuiltins registers all built-in functions and objects
func (e *Engine) setupBuiltins() {
	e.setupConsole()
	e.runtime.Set("json", e.jsonFunc())
	e.runtime.Set("screen", e.screenObject())
}

// setupConsole routes console.log, console.warn and console.error to the logger.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(log func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			log("js: %s", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.Debug))
	console.Set("warn", makeConsoleFunc(logger.Warn))
	console.Set("error", makeConsoleFunc(logger.Error))
	e.runtime.Set("console", console)
}

// jsonFunc returns the json() helper function
func (e *Engine) jsonFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}

		str := call.Arguments[0].String()
		result, err := e.runtime.RunString(fmt.Sprintf("JSON.parse(%q)", str))
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}
		return result
	}
}

// screenObject returns the screen global. Every helper reads the snapshot
// bound by the current evaluation; without one they report an empty screen.
func (e *Engine) screenObject() *goja.Object {
	obj := e.runtime.NewObject()

	obj.Set("hasText", func(s string) bool {
		if e.snap == nil {
			return false
		}
		ok, _ := screen.HasText(s)(e.snap)
		return ok
	})
	obj.Set("hasExactText", func(s string) bool {
		if e.snap == nil {
			return false
		}
		ok, _ := screen.HasExactText(s)(e.snap)
		return ok
	})
	obj.Set("count", func(s string) int {
		if e.snap == nil {
			return 0
		}
		return len(e.snap.FindAll(screen.And(screen.Visible(), screen.TextContains(s))))
	})
	obj.Set("texts", func() []interface{} {
		out := []interface{}{}
		if e.snap == nil {
			return out
		}
		for _, t := range e.snap.Texts() {
			out = append(out, t)
		}
		return out
	})

	obj.DefineAccessorProperty("platform", e.runtime.ToValue(func() string {
		if e.snap == nil {
			return ""
		}
		return e.snap.Platform
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	obj.DefineAccessorProperty("width", e.runtime.ToValue(func() int {
		if e.snap == nil {
			return 0
		}
		return e.snap.Width
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	obj.DefineAccessorProperty("height", e.runtime.ToValue(func() int {
		if e.snap == nil {
			return 0
		}
		return e.snap.Height
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	return obj
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runtime.Set(name, value)
}

// Eval evaluates a JavaScript expression against snap and returns the result.
// snap may be nil.
func (e *Engine) Eval(snap *screen.Snapshot, script string) (interface{}, error) {
	prog, err := goja.Compile("eval", script, false)
	if err != nil {
		return nil, fmt.Errorf("JS compile error: %w", err)
	}
	v, err := e.run(snap, prog)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// run executes prog with snap bound and the evaluation timeout armed.
func (e *Engine) run(snap *screen.Snapshot, prog *goja.Program) (goja.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snap = snap
	defer func() { e.snap = nil }()

	timer := time.AfterFunc(EvalTimeout, func() {
		e.runtime.Interrupt("evaluation timed out")
	})
	defer func() {
		timer.Stop()
		e.runtime.ClearInterrupt()
	}()

	v, err := e.runtime.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("JS runtime error: %w", err)
	}
	return v, nil
}

// Predicate compiles src into a screen predicate named name. Script errors
// at evaluation time are logged and count as no match.
func (e *Engine) Predicate(name, src string) (screen.Predicate, error) {
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("detector %s: %w", name, err)
	}
	desc := fmt.Sprintf("screen %s", name)
	return func(snap *screen.Snapshot) (bool, string) {
		v, err := e.run(snap, prog)
		if err != nil {
			logger.Warn("detector %s: %v", name, err)
			return false, desc
		}
		return v.ToBoolean(), desc
	}, nil
}

// Detectors compiles named detector scripts, ordered by name.
func (e *Engine) Detectors(defs map[string]string) (screen.Detectors, error) {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(screen.Detectors, 0, len(names))
	for _, name := range names {
		pred, err := e.Predicate(name, defs[name])
		if err != nil {
			return nil, err
		}
		out = append(out, screen.Detector{Name: name, Predicate: pred})
	}
	return out, nil
}
