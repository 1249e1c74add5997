package structure

import (
	"fmt"

	"github.com/graphism/nogoto/cfg"
	"github.com/pkg/errors"
)

// Error and Kind are aliases of cfg's error vocabulary: Validate (cfg)
// and StructureWhole (this package) report failures through the same
// taxonomy, so callers never have to distinguish which layer raised one.
type Error = cfg.Error
type Kind = cfg.Kind

// The kinds of failure Structure can report; see cfg.Kind for the
// definitions.
const (
	KindMalformedInput     = cfg.KindMalformedInput
	KindInvariantViolation = cfg.KindInvariantViolation
	KindResourceExhaustion = cfg.KindResourceExhaustion
)

// invariant panics with an *Error of kind KindInvariantViolation; the
// recover in StructureWhole turns it into a returned error. Violations
// are programmer bugs, never recoverable conditions, so nothing below the
// public entry point handles them.
func invariant(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	panic(&Error{Kind: KindInvariantViolation, Msg: msg, Cause: errors.New(msg)})
}
