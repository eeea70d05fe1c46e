package rbac

import "context"

// InvalidationBus carries hierarchy cache busts between service instances
// sharing one store. Subscribe must not deliver the publisher's own
// messages back to it. The returned stop function ends the subscription.
type InvalidationBus interface {
	Publish(ctx context.Context) error
	Subscribe(ctx context.Context, onInvalidate func()) (stop func() error, err error)
}
