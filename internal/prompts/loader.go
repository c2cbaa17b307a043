package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/practice-engine/internal/models"
)

// Loader manages loading and caching of LLM prompts
type Loader struct {
	mu      sync.RWMutex
	prompts map[string]*models.Prompt
}

// NewLoader creates a loader pre-populated with the built-in prompts.
// Files loaded later override built-ins with the same name.
func NewLoader() *Loader {
	l := &Loader{
		prompts: make(map[string]*models.Prompt),
	}
	for _, p := range defaults() {
		l.prompts[p.Name] = p
	}
	return l
}

// LoadFromDir loads all YAML prompts from a directory
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading prompts from directory", "dir", dir)

	patterns := []string{"*.yaml", "*.yml"}
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load prompt", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("prompts loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads one or more prompts from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	entries := pf.Prompts
	if len(entries) == 0 {
		// single-prompt file
		var single models.Prompt
		if err := yaml.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
		entries = []*models.Prompt{&single}
	}

	for _, p := range entries {
		if p.Name == "" {
			return fmt.Errorf("prompt name is required")
		}
		if p.System == "" && p.Template == "" {
			return fmt.Errorf("prompt %q has neither system nor template", p.Name)
		}

		l.mu.Lock()
		l.prompts[p.Name] = p
		l.mu.Unlock()

		slog.Info("prompt loaded", "name", p.Name)
	}

	return nil
}

// Get retrieves a prompt by name
func (l *Loader) Get(name string) *models.Prompt {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.prompts[name]
}

// List returns all loaded prompts
func (l *Loader) List() []*models.Prompt {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Prompt, 0, len(l.prompts))
	for _, p := range l.prompts {
		result = append(result, p)
	}
	return result
}

// Add programmatically adds a prompt
func (l *Loader) Add(p *models.Prompt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prompts[p.Name] = p
}

// Persona returns the interviewer prompt for a persona, falling back to
// the friendly persona when the requested one is not loaded.
func (l *Loader) Persona(persona models.Persona) *models.Prompt {
	if p := l.Get("persona." + string(persona)); p != nil {
		return p
	}
	return l.Get("persona." + string(models.PersonaFriendly))
}

// promptFile represents the YAML structure of a multi-prompt file
type promptFile struct {
	Prompts []*models.Prompt `yaml:"prompts"`
}
