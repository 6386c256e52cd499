package lua

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/quickjump/internal/action"
)

// Script describes a scripted action.
type Script struct {
	ID       string `toml:"id,omitempty" yaml:"id,omitempty"`
	Label    string `toml:"label,omitempty" yaml:"label,omitempty"`
	Category string `toml:"category,omitempty" yaml:"category,omitempty"`

	// Code is inline Lua. File is read when Code is empty.
	Code string `toml:"code,omitempty" yaml:"code,omitempty"`
	File string `toml:"file,omitempty" yaml:"file,omitempty"`

	RetainFocus bool `toml:"retain_focus,omitempty" yaml:"retain_focus,omitempty"`
}

// Host is what scripts can reach.
type Host interface {
	Notify(msg string)
	Dispatch(id string, arg any) error
}

// Runner turns scripts into actions that run in their own Lua state.
type Runner struct {
	host   Host
	logger *zap.Logger
	opts   []StateOption
	states []*State
}

// NewRunner creates a runner that exposes host to scripts.
func NewRunner(host Host, logger *zap.Logger, opts ...StateOption) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{host: host, logger: logger.Named("lua"), opts: opts}
}

// Action compiles sc into an action. The script returns nothing or true on
// success; a string or false fails the action.
func (r *Runner) Action(sc Script) (*action.Action, error) {
	code := sc.Code
	if code == "" && sc.File != "" {
		data, err := os.ReadFile(sc.File)
		if err != nil {
			return nil, fmt.Errorf("script %s: %w", sc.ID, err)
		}
		code = string(data)
	}
	if code == "" {
		return nil, fmt.Errorf("script %s: %w", sc.ID, ErrNoScript)
	}

	state := NewState(r.opts...)
	state.RegisterModule("quickjump", r.module())
	if _, err := state.L.LoadString(code); err != nil {
		state.Close()
		return nil, fmt.Errorf("script %s: %w", sc.ID, err)
	}
	r.states = append(r.states, state)

	label := sc.Label
	if label == "" {
		label = sc.ID
	}

	return &action.Action{
		ID:          sc.ID,
		Label:       label,
		Category:    sc.Category,
		RetainFocus: sc.RetainFocus,
		Source:      "lua:" + sc.ID,
		Handler: func(arg any) error {
			ret, err := state.Run(context.Background(), sc.ID, code, toLua(state.L, arg))
			if err != nil {
				r.logger.Warn("script error", zap.String("action", sc.ID), zap.Error(err))
				return err
			}
			switch v := ret.(type) {
			case lua.LString:
				return fmt.Errorf("%s: %w: %s", sc.ID, ErrScriptFailed, string(v))
			case lua.LBool:
				if !bool(v) {
					return fmt.Errorf("%s: %w", sc.ID, ErrScriptFailed)
				}
			}
			return nil
		},
	}, nil
}

// Register compiles every script and registers it with reg.
func (r *Runner) Register(reg *action.Registry, scripts []Script) error {
	for _, sc := range scripts {
		a, err := r.Action(sc)
		if err != nil {
			return err
		}
		if err := reg.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every Lua state created by the runner.
func (r *Runner) Close() error {
	for _, s := range r.states {
		s.Close()
	}
	r.states = nil
	return nil
}

func (r *Runner) module() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"notify": func(L *lua.LState) int {
			r.host.Notify(L.CheckString(1))
			return 0
		},
		"dispatch": func(L *lua.LState) int {
			id := L.CheckString(1)
			var arg any
			if L.GetTop() >= 2 {
				arg = fromLua(L.Get(2))
			}
			if err := r.host.Dispatch(id, arg); err != nil {
				L.Push(lua.LString(err.Error()))
				return 1
			}
			L.Push(lua.LNil)
			return 1
		},
		"log": func(L *lua.LState) int {
			r.logger.Info(L.CheckString(1))
			return 0
		},
	}
}

// toLua converts a dispatch argument to a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(x)
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []string:
		t := L.NewTable()
		for _, s := range x {
			t.Append(lua.LString(s))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

// fromLua converts a Lua value to a dispatch argument.
func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LString:
		return string(x)
	case lua.LNumber:
		return float64(x)
	case lua.LBool:
		return bool(x)
	default:
		return nil
	}
}
