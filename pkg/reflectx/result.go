package reflectx

import "reflect"

// ResultImplements reports whether any result of the function implements the
// interface type T. The function parameter can be either a function value or
// a reflect.Type of a function.
func ResultImplements[T any](function any) bool {
	if function == nil {
		return false
	}

	var fnType reflect.Type
	switch v := function.(type) {
	case reflect.Type:
		fnType = v
	default:
		fnType = reflect.TypeOf(function)
	}
	if fnType.Kind() != reflect.Func {
		return false
	}

	ifaceType := reflect.TypeFor[T]()
	for i := 0; i < fnType.NumOut(); i++ {
		if fnType.Out(i).Implements(ifaceType) {
			return true
		}
	}
	return false
}
