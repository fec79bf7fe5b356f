package scripting

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
)

// hostilityHook is the Lua global the script must define.
const hostilityHook = "classify"

// HostilityScript runs a content-supplied classify(target, scene) function in
// a sandboxed VM. The function returns "hostile", "non_hostile" or nil when
// it has no opinion.
//
// HostilityScript is safe for concurrent use; calls are serialized on the
// single VM.
type HostilityScript struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	logger *zap.Logger
}

// NewHostilityScript loads source into a fresh sandbox.
//
// Precondition: logger must not be nil.
// Postcondition: Returns an error if source fails to load or does not define
// a classify function.
func NewHostilityScript(source string, instLimit int, logger *zap.Logger) (*HostilityScript, error) {
	L := NewSandboxedState(instLimit)
	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading hostility script: %w", err)
	}
	if L.GetGlobal(hostilityHook).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("scripting: hostility script does not define %s()", hostilityHook)
	}
	return &HostilityScript{L: L, limit: instLimit, logger: logger}, nil
}

// ClassifyHostility implements confirm.Classifier. Runtime errors, budget
// exhaustion and unrecognised return values all yield ok == false so the
// next classifier is consulted.
func (h *HostilityScript) ClassifyHostility(ctx context.Context, target, scene string) (confirm.Hostility, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	release := WithBudget(ctx, h.L, h.limit)
	defer release()

	if err := h.L.CallByParam(lua.P{
		Fn:      h.L.GetGlobal(hostilityHook),
		NRet:    1,
		Protect: true,
	}, lua.LString(target), lua.LString(scene)); err != nil {
		h.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hostilityHook),
			zap.String("target", target),
			zap.Error(err),
		)
		return confirm.NonHostile, false, nil
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)

	switch lua.LVAsString(ret) {
	case "hostile":
		return confirm.Hostile, true, nil
	case "non_hostile":
		return confirm.NonHostile, true, nil
	default:
		return confirm.NonHostile, false, nil
	}
}

// Close releases the VM.
func (h *HostilityScript) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.L.Close()
}
