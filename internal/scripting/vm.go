package scripting

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/MJE43/lilyhop/internal/game"
)

// LogEntry represents a single log message from the script.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// VM wraps a goja runtime with sandbox restrictions and global function injection.
type VM struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int

	// stopRequested is set when the script calls stop().
	stopRequested bool

	// interrupted is closed once a call that outlived its timeout has
	// returned and the interrupt flag has been cleared.
	interrupted chan struct{}
}

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// NewVM creates a sandboxed goja runtime with global functions injected.
func NewVM() *VM {
	vm := &VM{
		runtime: goja.New(),
		maxLogs: 500,
	}
	vm.injectGlobalFunctions()
	injectConstants(vm.runtime)
	return vm
}

// injectGlobalFunctions registers log, console.log and stop.
func (vm *VM) injectGlobalFunctions() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		vm.logsMu.Lock()
		if len(vm.logs) >= vm.maxLogs {
			vm.logs = vm.logs[1:]
		}
		vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: msg})
		vm.logsMu.Unlock()

		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	// stop() ends the run after the current tick
	vm.runtime.Set("stop", func(call goja.FunctionCall) goja.Value {
		vm.stopRequested = true
		return goja.Undefined()
	})

	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("fetch", goja.Undefined())
	vm.runtime.Set("XMLHttpRequest", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

// Execute runs the pilot source once so it can define decide().
func (vm *VM) Execute(source string) error {
	return vm.runWithTimeout(scriptInitTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		if _, err := vm.runtime.RunString(source); err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
}

// HasDecide returns true if the script defined a decide() function.
func (vm *VM) HasDecide() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	_, ok := goja.AssertFunction(vm.runtime.Get("decide"))
	return ok
}

// CallDecide calls decide() and maps its return value to an input.
// "jump", "left" and "right" are actions; anything else does nothing.
func (vm *VM) CallDecide() (game.Input, error) {
	in := game.InputNone
	err := vm.runWithTimeout(scriptCallTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		fn := vm.runtime.Get("decide")
		if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
			return fmt.Errorf("decide() function is not defined")
		}
		callable, ok := goja.AssertFunction(fn)
		if !ok {
			return fmt.Errorf("decide is not a function")
		}

		result, err := callable(goja.Undefined())
		if err != nil {
			return fmt.Errorf("decide() error: %w", err)
		}
		if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
			return nil
		}
		if parsed, ok := game.ParseInput(result.String()); ok {
			in = parsed
		}
		return nil
	})
	return in, err
}

// SetState pushes the current run into the JS globals.
func (vm *VM) SetState(snap game.Snapshot, p game.Params) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	injectState(vm.runtime, snap, p)
}

// IsStopRequested returns true if stop() was called from the script.
func (vm *VM) IsStopRequested() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stopRequested
}

// GetLogs returns a copy of the current log buffer.
func (vm *VM) GetLogs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

func (vm *VM) runWithTimeout(timeout time.Duration, fn func() error) error {
	if vm.interrupted != nil {
		select {
		case <-vm.interrupted:
			vm.interrupted = nil
		case <-time.After(timeout):
			return fmt.Errorf("script timed out: previous call still running")
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		vm.runtime.Interrupt("script execution timeout")
		select {
		case err := <-done:
			vm.runtime.ClearInterrupt()
			if err != nil {
				return fmt.Errorf("script timed out: %w", err)
			}
			return fmt.Errorf("script timed out")
		case <-time.After(200 * time.Millisecond):
			cleared := make(chan struct{})
			vm.interrupted = cleared
			go func() {
				<-done
				vm.runtime.ClearInterrupt()
				close(cleared)
			}()
			return fmt.Errorf("script timed out")
		}
	}
}
