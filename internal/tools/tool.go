package tools

import (
	"context"

	"equitydesk/pkg/errors"
)

// Tool is a data lookup an agent may call while researching a company.
// Results are marshalled to JSON and handed back to the model verbatim.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// HandlerFunc performs the lookup for a tool.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

type handlerTool struct {
	name, description string
	handler           HandlerFunc
}

// New wraps handler as a Tool. A nil handler yields a tool that always fails
// with ErrInternal, which surfaces as a tool error in the agent transcript.
func New(name, description string, handler HandlerFunc) Tool {
	return &handlerTool{name: name, description: description, handler: handler}
}

func (t *handlerTool) Name() string        { return t.name }
func (t *handlerTool) Description() string { return t.description }

func (t *handlerTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if t.handler == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "tool %s has no handler", t.name)
	}
	return t.handler(ctx, args)
}
