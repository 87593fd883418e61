package shared

import "context"

// ToolFunc is the function signature for tool execution
// Used by middleware to wrap tool functions
type ToolFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)
