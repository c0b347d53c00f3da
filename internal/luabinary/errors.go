package luabinary

import "errors"

// ErrCorruptChunk is wrapped by every loader failure so callers can test
// for it with errors.Is regardless of which check tripped.
var ErrCorruptChunk = errors.New("corrupt bytecode chunk")
