package templates

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"equitydesk/pkg/errors"
)

const ext = ".tmpl"

//go:embed assets/**/*.tmpl
var embeddedFS embed.FS

// Template is one parsed prompt. Rendered output is trimmed so prompts can
// be laid out freely in the asset files.
type Template struct {
	ID     string
	parsed *template.Template
}

// Render executes the prompt with data.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.parsed.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render prompt %s", t.ID)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Registry resolves prompts by slash-separated ID, e.g. "agents/analyst".
// Everything under the root is parsed up front; IDs added to the
// filesystem later are parsed on first lookup.
type Registry struct {
	root fs.FS

	mu   sync.RWMutex
	byID map[string]*Template
}

// NewRegistry loads prompts from a directory on disk.
func NewRegistry(dir string) (*Registry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve prompt dir %s", dir)
	}
	return NewRegistryFromFS(os.DirFS(abs))
}

// NewRegistryFromFS loads prompts from root.
func NewRegistryFromFS(root fs.FS) (*Registry, error) {
	r := &Registry{root: root, byID: map[string]*Template{}}

	err := fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ext {
			return err
		}
		_, err = r.parse(strings.TrimSuffix(p, ext))
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

var (
	embeddedOnce sync.Once
	embedded     *Registry
	embeddedErr  error
)

// Get returns the registry over the prompts compiled into the binary.
// It panics if they fail to parse, which only a broken build can cause.
func Get() *Registry {
	embeddedOnce.Do(func() {
		sub, err := fs.Sub(embeddedFS, "assets")
		if err != nil {
			embeddedErr = errors.Wrap(err, "open embedded prompts")
			return
		}
		embedded, embeddedErr = NewRegistryFromFS(sub)
	})
	if embeddedErr != nil {
		panic(embeddedErr)
	}
	return embedded
}

// GetTemplate returns the prompt with the given ID.
func (r *Registry) GetTemplate(id string) (*Template, error) {
	r.mu.RLock()
	tmpl, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	if _, err := fs.Stat(r.root, id+ext); err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "prompt %s", id)
	}
	return r.parse(id)
}

// Render looks up a prompt and executes it.
func (r *Registry) Render(id string, data any) (string, error) {
	tmpl, err := r.GetTemplate(id)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}

// List returns the IDs parsed so far in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

func (r *Registry) parse(id string) (*Template, error) {
	raw, err := fs.ReadFile(r.root, id+ext)
	if err != nil {
		return nil, errors.Wrapf(err, "read prompt %s", id)
	}
	parsed, err := template.New(id).Funcs(funcMap()).Parse(string(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "parse prompt %s", id)
	}

	tmpl := &Template{ID: id, parsed: parsed}
	r.mu.Lock()
	r.byID[id] = tmpl
	r.mu.Unlock()
	return tmpl, nil
}
