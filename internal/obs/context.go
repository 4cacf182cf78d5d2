package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern records the matched router pattern on the context. The
// metrics, tracing, and request-log middleware all read it so labels carry
// the pattern ("/api/v1/bills/{billID}") rather than the raw path.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the stored pattern, or "" when the request
// never matched a route.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}
