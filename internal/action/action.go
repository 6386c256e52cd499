// Package action holds the editor's dispatchable actions and the menu tree
// that exposes them.
//
// An Action is identified by a command ID such as "project:open-file". Menus
// reference actions by ID and may add a palette-specific label, an argument
// and a minimum application version.
package action

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Errors returned by the registry.
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNoHandler     = errors.New("action has no handler")
	ErrInvalidAction = errors.New("invalid action")
)

// Handler executes an action. arg is the argument attached by the menu item
// or the caller, and may be nil.
type Handler func(arg any) error

// Action is a registered, dispatchable command.
type Action struct {
	// ID is the unique command identifier (e.g., "sidebar:toggle").
	ID string

	// Label is the display name shown in the palette.
	Label string

	// Category groups related actions (e.g., "File", "View").
	Category string

	// Keybinding shows the keyboard shortcut (for display only).
	Keybinding string

	// Handler executes the action.
	Handler Handler

	// RetainFocus keeps focus away from the editor after the palette
	// dispatches the action.
	RetainFocus bool

	// Source indicates where the action was registered.
	// e.g., "core", "lua:format", "user"
	Source string
}

// Registry stores actions and menus. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*Action
	menus   []MenuItem
	logger  *zap.Logger

	// onChange callbacks are called when actions or menus change.
	onChange []func()
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		actions: make(map[string]*Action),
		logger:  logger.Named("actions"),
	}
}

// Register adds an action. An action with the same ID is replaced.
func (r *Registry) Register(a *Action) error {
	if a == nil {
		return fmt.Errorf("%w: nil", ErrInvalidAction)
	}
	if a.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidAction)
	}
	if a.Label == "" {
		return fmt.Errorf("%w: %q has no label", ErrInvalidAction, a.ID)
	}

	r.mu.Lock()
	r.actions[a.ID] = a
	r.mu.Unlock()

	r.notifyChange()
	return nil
}

// RegisterAll adds multiple actions.
func (r *Registry) RegisterAll(actions []*Action) error {
	for _, a := range actions {
		if err := r.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes an action.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	_, exists := r.actions[id]
	delete(r.actions, id)
	r.mu.Unlock()

	if exists {
		r.notifyChange()
	}
	return exists
}

// UnregisterBySource removes all actions from a specific source.
func (r *Registry) UnregisterBySource(source string) int {
	r.mu.Lock()
	count := 0
	for id, a := range r.actions {
		if a.Source == source {
			delete(r.actions, id)
			count++
		}
	}
	r.mu.Unlock()

	if count > 0 {
		r.notifyChange()
	}
	return count
}

// Get retrieves an action by ID.
func (r *Registry) Get(id string) *Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actions[id]
}

// Registered returns all actions sorted by label, then ID.
func (r *Registry) Registered() []*Action {
	r.mu.RLock()
	result := make([]*Action, 0, len(r.actions))
	for _, a := range r.actions {
		result = append(result, a)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Label != result[j].Label {
			return result[i].Label < result[j].Label
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Count returns the number of registered actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// SetMenus replaces the menu tree.
func (r *Registry) SetMenus(menus []MenuItem) {
	r.mu.Lock()
	r.menus = menus
	r.mu.Unlock()
	r.notifyChange()
}

// AddMenu appends top-level menu items.
func (r *Registry) AddMenu(items ...MenuItem) {
	r.mu.Lock()
	r.menus = append(r.menus, items...)
	r.mu.Unlock()
	r.notifyChange()
}

// Menus returns the menu tree.
func (r *Registry) Menus() []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.menus
}

// Dispatch runs the action registered for id with arg.
func (r *Registry) Dispatch(id string, arg any) error {
	r.mu.RLock()
	a, exists := r.actions[id]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("dispatch %q: %w", id, ErrUnknownAction)
	}
	if a.Handler == nil {
		return fmt.Errorf("dispatch %q: %w", id, ErrNoHandler)
	}

	r.logger.Debug("dispatch", zap.String("action", id), zap.Any("arg", arg))
	if err := a.Handler(arg); err != nil {
		return fmt.Errorf("action %q: %w", id, err)
	}
	return nil
}

// Categories returns all unique action categories in sorted order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	seen := make(map[string]bool)
	for _, a := range r.actions {
		if a.Category != "" {
			seen[a.Category] = true
		}
	}
	r.mu.RUnlock()

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// OnChange registers a callback for action or menu changes.
// Callbacks must not register actions themselves.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// notifyChange calls callbacks without holding locks.
func (r *Registry) notifyChange() {
	r.mu.RLock()
	callbacks := make([]func(), len(r.onChange))
	copy(callbacks, r.onChange)
	r.mu.RUnlock()

	for _, fn := range callbacks {
		fn()
	}
}
