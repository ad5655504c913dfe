package httpapi

import "context"

// serverBaseCtx is canceled on shutdown; running generations observe it.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers. Nil
// resets it to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives from b a context that is also canceled when a is done.
// The cancel func releases the registration and must be called.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(b)
	stop := context.AfterFunc(a, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
