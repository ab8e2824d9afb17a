package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Rorical/RoriAgent/internal/sandbox"
)

var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrToolInternal     = errors.New("tool internal error")
)

// Tool is a named capability the model can invoke. Execute receives the
// validated argument map and returns text for the model; a returned error is
// reported to the model as a tool failure.
type Tool interface {
	Name() string
	Schema() Schema
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// Confirmator asks a human to approve a privileged operation.
type Confirmator interface {
	RequestConfirmation(operation, command string, dangerous bool) bool
}

// Deps are handed to every tool factory.
type Deps struct {
	Gateway     *sandbox.Gateway
	Confirmator Confirmator // nil approves everything
	Logger      *slog.Logger
}

// Factory constructs one tool.
type Factory func(deps Deps) (Tool, error)

type registration struct {
	name    string
	factory Factory
}

// Builder collects tool registrations before the registry is created.
type Builder struct {
	registrations []registration
	deps          Deps
}

// NewBuilder creates a builder that passes deps to each factory.
func NewBuilder(deps Deps) *Builder {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{deps: deps}
}

// Register queues a tool factory under name. Registration order is the order
// schemas are reported in.
func (b *Builder) Register(name string, factory Factory) *Builder {
	b.registrations = append(b.registrations, registration{name: name, factory: factory})
	return b
}

// Build freezes the registrations into a Registry. Tools are constructed on
// the first Discover or Refresh.
func (b *Builder) Build() *Registry {
	regs := make([]registration, len(b.registrations))
	copy(regs, b.registrations)
	return &Registry{
		registrations: regs,
		deps:          b.deps,
		logger:        b.deps.Logger,
	}
}

// internalError marks a failure raised by a tool body.
type internalError struct {
	err error
}

func (e *internalError) Error() string {
	return ErrToolInternal.Error() + ": " + e.err.Error()
}

func (e *internalError) Is(target error) bool {
	return target == ErrToolInternal
}

func (e *internalError) Unwrap() error {
	return e.err
}

// catalog is an immutable snapshot of constructed tools.
type catalog struct {
	schemas []Schema
	tools   map[string]Tool
}

// Registry maps tool names to tools. The catalog is replaced wholesale on
// Refresh, so readers always see a complete map.
type Registry struct {
	registrations []registration
	deps          Deps
	logger        *slog.Logger

	current atomic.Pointer[catalog]
	scans   singleflight.Group
}

// Discover returns the schema set, constructing the tools on first use.
// Repeated calls return the cached result until Refresh is called.
func (r *Registry) Discover() []Schema {
	return cloneSchemas(r.load().schemas)
}

// Refresh reconstructs every tool and swaps in the new catalog. Concurrent
// refreshes share one scan.
func (r *Registry) Refresh(ctx context.Context) ([]Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat := r.scan()
	return cloneSchemas(cat.schemas), nil
}

// Lookup fetches a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.load().tools[name]
	return tool, ok
}

// Execute runs the named tool after validating args. Failures are returned
// as errors wrapping ErrToolNotFound, ErrInvalidArguments or ErrToolInternal.
// A panic inside the tool is converted into an ErrToolInternal error.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (result string, err error) {
	tool, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("tool panicked", "tool", name, "panic", recovered)
			result = ""
			err = &internalError{err: fmt.Errorf("panic: %v", recovered)}
		}
	}()

	if err := validateArgs(tool.Schema(), args); err != nil {
		return "", err
	}

	r.logger.Info("executing tool", "tool", name, "args", preview(fmt.Sprint(args), 100))
	out, err := tool.Execute(ctx, args)
	if err != nil {
		return "", &internalError{err: err}
	}
	return out, nil
}

// Dispatch is Execute with every failure folded into descriptive text, so
// the caller can hand the result to the model unconditionally.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]interface{}) string {
	out, err := r.Execute(ctx, name, args)
	switch {
	case err == nil:
		return out
	case errors.Is(err, ErrToolNotFound):
		return fmt.Sprintf("Error: Tool '%s' not found. Please use one of the provided tools.", name)
	case errors.Is(err, ErrInvalidArguments):
		r.logger.Warn("tool argument mismatch", "tool", name, "error", err)
		return fmt.Sprintf("Error executing '%s': Invalid arguments provided. Details: %v", name, err)
	default:
		r.logger.Warn("tool failed", "tool", name, "error", err)
		var internal *internalError
		if errors.As(err, &internal) {
			err = internal.err
		}
		return fmt.Sprintf("Error inside tool '%s': %v", name, err)
	}
}

func (r *Registry) load() *catalog {
	if cat := r.current.Load(); cat != nil {
		return cat
	}
	v, _, _ := r.scans.Do("load", func() (interface{}, error) {
		if cat := r.current.Load(); cat != nil {
			return cat, nil
		}
		return r.swap(), nil
	})
	return v.(*catalog)
}

func (r *Registry) scan() *catalog {
	v, _, _ := r.scans.Do("refresh", func() (interface{}, error) {
		return r.swap(), nil
	})
	return v.(*catalog)
}

func (r *Registry) swap() *catalog {
	cat := r.build()
	r.current.Store(cat)
	r.logger.Info("tool registry loaded", "tools", len(cat.schemas))
	return cat
}

func (r *Registry) build() *catalog {
	cat := &catalog{tools: make(map[string]Tool, len(r.registrations))}
	for _, reg := range r.registrations {
		tool, schema, err := r.construct(reg)
		if err != nil {
			r.logger.Error("failed to load tool", "tool", reg.name, "error", err)
			continue
		}
		name := schema.Name
		if _, exists := cat.tools[name]; exists {
			r.logger.Warn("duplicate tool name skipped", "tool", name)
			continue
		}
		cat.tools[name] = tool
		cat.schemas = append(cat.schemas, schema)
	}
	return cat
}

// construct runs the factory and reads the tool's name and schema, turning a
// panic in any of them into an error.
func (r *Registry) construct(reg registration) (tool Tool, schema Schema, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			tool, schema = nil, Schema{}
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	tool, err = reg.factory(r.deps)
	if err != nil {
		return nil, Schema{}, err
	}
	if tool == nil {
		return nil, Schema{}, errors.New("factory returned no tool")
	}
	name := tool.Name()
	if name == "" {
		return nil, Schema{}, errors.New("tool name is empty")
	}
	schema = tool.Schema()
	schema.Name = name
	return tool, schema, nil
}

func cloneSchemas(in []Schema) []Schema {
	out := make([]Schema, len(in))
	for i, s := range in {
		s.Params = append([]Param(nil), s.Params...)
		out[i] = s
	}
	return out
}

func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
