package shared

import (
	"context"
	"time"

	"equitydesk/internal/tools"
)

// ToolBuilder provides a fluent API for creating tools with middleware
type ToolBuilder struct {
	name        string
	description string
	fn          ToolFunc

	withTimeout bool
	timeout     time.Duration

	withStats bool
}

// NewToolBuilder creates a builder for a tool
func NewToolBuilder(name, description string, fn ToolFunc) *ToolBuilder {
	return &ToolBuilder{
		name:        name,
		description: description,
		fn:          fn,
		timeout:     30 * time.Second,
	}
}

// WithTimeout enables timeout middleware
func (b *ToolBuilder) WithTimeout(timeout time.Duration) *ToolBuilder {
	b.withTimeout = true
	b.timeout = timeout
	return b
}

// WithStats enables stats tracking middleware
func (b *ToolBuilder) WithStats() *ToolBuilder {
	b.withStats = true
	return b
}

// Build creates the tool with configured middleware applied
func (b *ToolBuilder) Build() tools.Tool {
	fn := b.fn

	// Timeout is inner so stats observe the deadline error
	if b.withTimeout {
		fn = wrapWithTimeout(b.timeout, fn)
	}
	if b.withStats {
		fn = wrapWithStats(b.name, fn)
	}

	return tools.New(b.name, b.description, tools.HandlerFunc(fn))
}

func wrapWithTimeout(timeout time.Duration, fn ToolFunc) ToolFunc {
	if timeout <= 0 {
		return fn
	}

	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(ctx, args)
	}
}
