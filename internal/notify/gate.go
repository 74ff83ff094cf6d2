package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/huh"
)

// StaticGate always answers with the configured permission.
type StaticGate Permission

// RequestPermission returns the fixed permission.
func (g StaticGate) RequestPermission(context.Context) (Permission, error) {
	return Permission(g), nil
}

// SwitchGate answers with a permission that can change while the process
// runs, e.g. when the user answers inside a full-screen UI.
type SwitchGate struct {
	mu sync.RWMutex
	p  Permission
}

// NewSwitchGate returns a gate answering p until Set is called.
func NewSwitchGate(p Permission) *SwitchGate {
	return &SwitchGate{p: p}
}

// Set replaces the answer.
func (g *SwitchGate) Set(p Permission) {
	g.mu.Lock()
	g.p = p
	g.mu.Unlock()
}

// RequestPermission returns the current answer.
func (g *SwitchGate) RequestPermission(context.Context) (Permission, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.p, nil
}

// PromptGate asks the user once and remembers a definite answer for the
// lifetime of the process.
type PromptGate struct {
	ask func(ctx context.Context) (bool, error)

	mu     sync.Mutex
	answer Permission
}

// NewPromptGate returns a gate that asks on the terminal.
func NewPromptGate() *PromptGate {
	return &PromptGate{ask: askTerminal}
}

// NewPromptGateFunc returns a gate that asks through ask.
func NewPromptGateFunc(ask func(ctx context.Context) (bool, error)) *PromptGate {
	return &PromptGate{ask: ask}
}

// RequestPermission asks the user unless an answer is already known.
func (g *PromptGate) RequestPermission(ctx context.Context) (Permission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.answer == PermissionGranted || g.answer == PermissionDenied {
		return g.answer, nil
	}

	ok, err := g.ask(ctx)
	if err != nil {
		return PermissionPrompt, fmt.Errorf("asking for notification permission: %w", err)
	}
	if ok {
		g.answer = PermissionGranted
	} else {
		g.answer = PermissionDenied
	}
	return g.answer, nil
}

func askTerminal(ctx context.Context) (bool, error) {
	allow := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow task reminders?").
				Description("Reminders are shown in this terminal before a task starts.").
				Affirmative("Allow").
				Negative("Block").
				Value(&allow),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return allow, nil
}

// NewGate builds the gate named by a permission config value.
func NewGate(permission string) (Gate, error) {
	p, err := ParsePermission(permission)
	if err != nil {
		return nil, err
	}
	if p == PermissionPrompt {
		return NewPromptGate(), nil
	}
	return StaticGate(p), nil
}
