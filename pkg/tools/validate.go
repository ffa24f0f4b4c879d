package tools

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/rhuss/kanzel/pkg/upstream"
)

// ValidateArguments checks the supplied arguments against the
// descriptor's input schema. Descriptors without a schema accept any
// arguments. Schemas that themselves fail to load do not reject the
// call; the upstream server remains the authority on its own contract.
func ValidateArguments(desc upstream.ToolDescriptor, arguments map[string]any) error {
	if len(desc.InputSchema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewBytesLoader(desc.InputSchema)
	if arguments == nil {
		arguments = map[string]any{}
	}
	documentLoader := gojsonschema.NewGoLoader(arguments)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		details = append(details, resultErr.String())
	}
	return &InvalidArgumentsError{Tool: desc.Name, Detail: strings.Join(details, "; ")}
}
