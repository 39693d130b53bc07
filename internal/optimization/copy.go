package optimization

import (
	"reflect"

	"github.com/mohae/deepcopy"
)

// CopyStrategy selects how the engine snapshots state. Picking a strategy
// incompatible with the actual state shape is a caller error; the engine
// only detects the cases that are checkable at copy time.
type CopyStrategy string

const (
	// CopyFull performs a recursive structural deep copy. Correct for any
	// state shape; slowest.
	CopyFull CopyStrategy = "full"

	// CopySlice performs a shallow copy of a top-level slice. Valid only
	// when the state is a flat slice whose elements are not mutated
	// through nested references.
	CopySlice CopyStrategy = "slice"

	// CopyDelegated calls the state's own Clone method. Correctness
	// depends on that method returning a true independent copy.
	CopyDelegated CopyStrategy = "delegated"
)

// CopyState returns a copy of state that is value-equal at the call
// instant and unaffected by subsequent mutation of either value. An
// unknown strategy, or a strategy the state shape cannot support, is
// reported here rather than at engine construction.
func CopyState[S any](strategy CopyStrategy, state S) (S, error) {
	var zero S
	switch strategy {
	case CopyFull:
		copied, ok := deepcopy.Copy(state).(S)
		if !ok {
			return zero, NewErrorf("deep copy produced %T, want %T", deepcopy.Copy(state), state).
				WithComponent("copy").WithOperation("full")
		}
		return copied, nil

	case CopySlice:
		v := reflect.ValueOf(state)
		if v.Kind() != reflect.Slice {
			return zero, NewErrorf("slice copy requires a slice state, got %T", state).
				WithComponent("copy").WithOperation("slice")
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		reflect.Copy(out, v)
		return out.Interface().(S), nil

	case CopyDelegated:
		cloner, ok := any(state).(Cloner[S])
		if !ok {
			return zero, NewErrorf("delegated copy requires %T to implement Clone() %T", state, state).
				WithComponent("copy").WithOperation("delegated")
		}
		return cloner.Clone(), nil

	default:
		return zero, NewErrorf("no implementation for copy strategy %q", strategy).
			WithComponent("copy")
	}
}
