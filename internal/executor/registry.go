package executor

import (
	"fmt"
	"sync"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// Registry implements Manager with thread-safe executor registration.
type Registry struct {
	mu        sync.RWMutex
	executors map[models.Language]Executor
}

// NewRegistry creates a new empty executor registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[models.Language]Executor)}
}

// Register registers an executor for a language, replacing any prior
// registration for it.
func (r *Registry) Register(language models.Language, exec Executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if language == "" {
		return fmt.Errorf("language cannot be empty")
	}
	if exec == nil {
		return fmt.Errorf("executor cannot be nil")
	}

	r.executors[language] = exec
	return nil
}

// Get retrieves the executor registered for language.
func (r *Registry) Get(language models.Language) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exec, ok := r.executors[language]
	if !ok {
		return nil, errNotFound(language)
	}
	return exec, nil
}

// Has reports whether an executor is registered for language.
func (r *Registry) Has(language models.Language) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.executors[language]
	return ok
}

// List returns every registered language.
func (r *Registry) List() []models.Language {
	r.mu.RLock()
	defer r.mu.RUnlock()

	languages := make([]models.Language, 0, len(r.executors))
	for language := range r.executors {
		languages = append(languages, language)
	}
	return languages
}
