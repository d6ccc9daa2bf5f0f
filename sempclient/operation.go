package sempclient

import "context"

// Operation names reported in errors, metrics and the x-asc-module-op header.
const (
	OpReadSempVersion = "read_semp_version"
	OpReadObjectList  = "read_object_list"
	OpReadObject      = "read_object"
	OpCreateObject    = "create_object"
	OpDeleteObject    = "delete_object"
	OpUpdateObject    = "update_object"
)

type moduleKey struct{}

// WithModule returns a context carrying the name of the task kind on whose
// behalf requests are made.
func WithModule(ctx context.Context, module string) context.Context {
	return context.WithValue(ctx, moduleKey{}, module)
}

// ModuleFrom returns the task kind stored by WithModule, or "".
func ModuleFrom(ctx context.Context) string {
	if m, ok := ctx.Value(moduleKey{}).(string); ok {
		return m
	}
	return ""
}
