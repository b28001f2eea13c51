package mailer

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"maps"
	"path"
	"sync"
	texttemplate "text/template"
)

// Renderer renders paired "<name>.html" and "<name>.txt" templates.
type Renderer struct {
	fs    fs.FS
	dir   string
	cache map[string]*cachedTemplate
	mu    sync.RWMutex
}

// cachedTemplate holds the parsed pair; either part may be nil.
type cachedTemplate struct {
	metadata map[string]any
	html     *htmltemplate.Template
	text     *texttemplate.Template
}

// RenderResult contains the rendered bodies and merged frontmatter.
type RenderResult struct {
	Metadata map[string]any
	HTML     string
	Text     string
}

// NewRenderer creates a renderer reading templates from dir inside fsys.
func NewRenderer(fsys fs.FS, dir string) *Renderer {
	if dir == "" {
		dir = "."
	}
	return &Renderer{
		fs:    fsys,
		dir:   dir,
		cache: make(map[string]*cachedTemplate),
	}
}

// Render executes both parts of the named template with data.
func (r *Renderer) Render(name string, data any) (*RenderResult, error) {
	cached, err := r.getTemplate(name)
	if err != nil {
		return nil, err
	}

	result := &RenderResult{Metadata: cached.metadata}

	if cached.html != nil {
		var buf bytes.Buffer
		if err := cached.html.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("%w: %s.html: %v", ErrRenderFailed, name, err)
		}
		result.HTML = buf.String()
	}
	if cached.text != nil {
		var buf bytes.Buffer
		if err := cached.text.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("%w: %s.txt: %v", ErrRenderFailed, name, err)
		}
		result.Text = buf.String()
	}

	return result, nil
}

// Load parses and caches the named template without executing it.
func (r *Renderer) Load(name string) error {
	_, err := r.getTemplate(name)
	return err
}

func (r *Renderer) getTemplate(name string) (*cachedTemplate, error) {
	r.mu.RLock()
	if cached, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if cached, ok := r.cache[name]; ok {
		return cached, nil
	}

	htmlPart, err := r.readPart(name + ".html")
	if err != nil {
		return nil, err
	}
	textPart, err := r.readPart(name + ".txt")
	if err != nil {
		return nil, err
	}
	if htmlPart == nil && textPart == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	// HTML frontmatter wins on key conflicts.
	metadata := map[string]any{}
	if textPart != nil {
		maps.Copy(metadata, textPart.Metadata)
	}
	if htmlPart != nil {
		maps.Copy(metadata, htmlPart.Metadata)
	}
	meta := func(key string) any { return metadata[key] }

	cached := &cachedTemplate{metadata: metadata}
	if htmlPart != nil {
		cached.html, err = htmltemplate.New(name + ".html").
			Funcs(htmltemplate.FuncMap{"meta": meta}).
			Parse(htmlPart.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.html: %v", ErrRenderFailed, name, err)
		}
	}
	if textPart != nil {
		cached.text, err = texttemplate.New(name + ".txt").
			Funcs(texttemplate.FuncMap{"meta": meta}).
			Parse(textPart.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.txt: %v", ErrRenderFailed, name, err)
		}
	}

	r.cache[name] = cached
	return cached, nil
}

// readPart returns nil without error when the file does not exist.
func (r *Renderer) readPart(file string) (*Template, error) {
	content, err := fs.ReadFile(r.fs, path.Join(r.dir, file))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, file, err)
	}

	parsed, err := ParseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return parsed, nil
}
