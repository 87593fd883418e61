package dockermcp

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"equitydesk/internal/adapters/exa"
	"equitydesk/internal/domain/news"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// Compile-time check
var _ news.SearchBackend = (*Backend)(nil)

const (
	defaultTimeout = 60 * time.Second
	searchTool     = "web_search_exa"
	clientName     = "equitydesk"
)

// Dialer returns a fresh transport for one MCP session
type Dialer func() mcp.Transport

// GatewayTransport starts the Docker MCP gateway and talks to it over stdio
func GatewayTransport() mcp.Transport {
	return &mcp.CommandTransport{Command: exec.Command("docker", "mcp", "gateway", "run")}
}

// Backend searches through the Exa tool exposed by the Docker MCP gateway.
// The tool has no domain filter, so priority domains are appended as site: terms.
// One session is kept open and redialed after a transport failure.
type Backend struct {
	dial    Dialer
	client  *mcp.Client
	timeout time.Duration
	log     *logger.Logger

	mu      sync.Mutex
	session *mcp.ClientSession
}

// NewBackend creates a backend over the local Docker MCP gateway
func NewBackend() *Backend {
	return NewBackendWithDialer(GatewayTransport)
}

// NewBackendWithDialer creates a backend over any MCP transport
func NewBackendWithDialer(dial Dialer) *Backend {
	return &Backend{
		dial:    dial,
		client:  mcp.NewClient(&mcp.Implementation{Name: clientName}, nil),
		timeout: defaultTimeout,
		log:     logger.Get().Named("dockermcp"),
	}
}

func (b *Backend) Name() string { return "dockermcp_exa_tool" }

// Search implements news.SearchBackend
func (b *Backend) Search(ctx context.Context, q news.NewsQuery) ([]news.Article, error) {
	query := q.Text
	if len(q.Domains) > 0 {
		query += " " + q.Domains.SiteFilter()
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	session, err := b.connect(ctx)
	if err != nil {
		return nil, b.classify(ctx, err, "connect to docker MCP gateway")
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      searchTool,
		Arguments: map[string]any{"query": query},
	})
	if err != nil {
		b.drop(session)
		return nil, b.classify(ctx, err, "docker MCP exa search failed")
	}

	text := resultText(result)
	if result.IsError {
		msg := strings.TrimSpace(text)
		if msg == "" {
			msg = "tool reported an error"
		}
		return nil, errors.Wrapf(errors.ErrSearchUnavailable, "docker MCP exa search failed: %s", msg)
	}

	raw, err := exa.ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	items, err := exa.ParseResults(raw)
	if err != nil {
		return nil, err
	}
	b.log.Debugw("docker MCP exa search", "scope", q.Scope(), "results", len(items))
	return items, nil
}

// Close ends the gateway session, if one is open
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return nil
	}
	err := b.session.Close()
	b.session = nil
	return err
}

func (b *Backend) connect(ctx context.Context) (*mcp.ClientSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != nil {
		return b.session, nil
	}
	session, err := b.client.Connect(ctx, b.dial(), nil)
	if err != nil {
		return nil, err
	}
	b.log.Infow("docker MCP session opened", "session_id", session.ID())
	b.session = session
	return session, nil
}

func (b *Backend) drop(session *mcp.ClientSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != session {
		return
	}
	if err := session.Close(); err != nil {
		b.log.Debugw("close docker MCP session", "error", err)
	}
	b.session = nil
}

func (b *Backend) classify(ctx context.Context, err error, action string) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return errors.Wrap(errors.ErrSearchUnavailable, "docker CLI not found; install Docker Desktop or set EXA_API_KEY")
	case ctx.Err() == context.DeadlineExceeded:
		return errors.Wrap(errors.ErrSearchUnavailable, "docker MCP exa search timed out")
	}
	return errors.Wrapf(errors.ErrSearchUnavailable, "%s: %v", action, err)
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if t, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}
