package entity

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/eljefe6a/kite/pkg/errors"
	"github.com/eljefe6a/kite/pkg/logger"
)

// Resolver resolves a record type's full name to a concrete Go struct type.
// It is the lookup the fixed-layout builder factory depends on; failure to
// resolve is a configuration defect, not a data error.
type Resolver interface {
	Resolve(name string) (reflect.Type, error)
}

// TypeRegistry maps record type full names to registered Go struct types.
type TypeRegistry struct {
	mu     sync.RWMutex
	types  map[string]reflect.Type
	logger *zap.Logger
}

// Global registry instance
var globalRegistry = NewTypeRegistry()

// NewTypeRegistry creates a new type registry
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:  make(map[string]reflect.Type),
		logger: logger.Get().With(zap.String("component", "type_registry")),
	}
}

// Register associates a record type full name with the Go type of the given
// prototype value. The prototype must be a struct or a pointer to one.
func (r *TypeRegistry) Register(name string, prototype interface{}) error {
	t := reflect.TypeOf(prototype)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return errors.Newf(errors.ErrorTypeConfig,
			"entity type %q must be registered with a struct prototype, got %T", name, prototype)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.types[name]; exists && existing != t {
		return errors.Newf(errors.ErrorTypeConfig,
			"entity type %q already registered as %s", name, existing)
	}

	r.types[name] = t
	r.logger.Info("entity type registered",
		zap.String("name", name),
		zap.String("go_type", t.String()))
	return nil
}

// Resolve returns the Go struct type registered under the given full name.
func (r *TypeRegistry) Resolve(name string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.types[name]
	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"no Go type registered for entity type %q", name)
	}
	return t, nil
}

// Clear removes all registered types (mainly for testing)
func (r *TypeRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = make(map[string]reflect.Type)
}

// Global registry functions

// Register registers an entity type in the global registry
func Register(name string, prototype interface{}) error {
	return globalRegistry.Register(name, prototype)
}

// Resolve resolves an entity type from the global registry
func Resolve(name string) (reflect.Type, error) {
	return globalRegistry.Resolve(name)
}

// DefaultRegistry returns the global registry instance
func DefaultRegistry() *TypeRegistry {
	return globalRegistry
}
