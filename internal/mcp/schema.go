package mcp

import (
	"fmt"

	"sprint-mcp/internal/stats"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	burndownMetrics     = []any{string(stats.MetricIssues), string(stats.MetricTime)}
	completionFields    = []any{string(stats.CompletionDevDone), string(stats.CompletionTestDone), string(stats.CompletionResolution)}
	distributionMetrics = []any{string(stats.DistributeIssues), string(stats.DistributeEstimate), string(stats.DistributeSprintTime)}
)

// inputSchema infers the schema of T and restricts the named properties to
// the given values. It panics on a property T does not have.
func inputSchema[T any](enums map[string][]any) *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("mcp: infer input schema: %v", err))
	}
	for name, values := range enums {
		prop, ok := schema.Properties[name]
		if !ok {
			panic(fmt.Sprintf("mcp: no property %q to constrain", name))
		}
		prop.Enum = values
	}
	return schema
}
