package reflectx

import "reflect"

// IsRefinedType reports whether t is exactly the type R. It is used to pick
// out framework-provided parameter types (like types.ContextVars) when
// reflecting over tool function signatures.
func IsRefinedType[R any](t reflect.Type) bool {
	return t == reflect.TypeFor[R]()
}
