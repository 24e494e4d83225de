package tool

import (
	"fmt"
	"reflect"

	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/strixlabs/strix/pkg/reflectx"
	"github.com/strixlabs/strix/pkg/stdx"
	"github.com/strixlabs/strix/types"
)

// Definition describes a callable tool: the function itself plus the
// metadata handed to the model.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Function    any
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema returns the tool's name and a JSON schema describing its
// parameters, derived from the function signature.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	name := td.Name
	if name == "" {
		name = reflectx.FunctionName(td.Function)
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	typ := reflect.TypeOf(td.Function)
	if typ == nil || typ.Kind() != reflect.Func {
		return name, schema
	}

	var required []string
	paramIdx := 0
	for i := 0; i < typ.NumIn(); i++ {
		paramType := typ.In(i)
		if reflectx.IsRefinedType[types.ContextVars](paramType) {
			continue
		}

		paramName := fmt.Sprintf("param%d", paramIdx)
		if td.Parameters != nil {
			if p, ok := td.Parameters[paramName]; ok {
				paramName = p
			}
		}
		paramIdx++

		propSchema := functionReflector.ReflectFromType(paramType)
		propSchema.Version = ""
		schema.Properties.Set(paramName, propSchema)
		required = append(required, paramName)
	}
	if len(required) > 0 {
		schema.Required = required
	}

	return name, schema
}

// Option configures a tool definition.
type Option = opts.Option[Definition]

// Must wraps New and panics on error.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New creates a tool definition from the provided function and options.
// It returns an error when f is not a function.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

// Name sets the tool name exposed to the model.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the tool description exposed to the model.
var Description = opts.ForName[Definition, string]("Description")

// Parameters assigns names to the function's positional parameters in order.
// Without this option parameters are exposed as param0, param1, and so on.
func Parameters(parameters ...string) opts.Option[Definition] {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}
