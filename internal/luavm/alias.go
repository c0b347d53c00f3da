package luavm

import "lua53vm.dev/core/internal/luaclosure"

// Type aliases so the rest of this package can talk about closures and
// upvalues without a luaclosure. qualifier on every line; the types
// genuinely live in luaclosure (shared with the loader).
type (
	Closure   = luaclosure.Closure
	Upvalue   = luaclosure.Upvalue
	Prototype = luaclosure.Prototype
	UpvalDesc = luaclosure.UpvalDesc
	HostFunc  = luaclosure.HostFunc
	Stack     = luaclosure.Stack
)

var (
	NewOpenUpvalue   = luaclosure.NewOpenUpvalue
	NewClosedUpvalue = luaclosure.NewClosedUpvalue
	NewScriptClosure = luaclosure.NewScriptClosure
	NewHostClosure   = luaclosure.NewHostClosure
)
