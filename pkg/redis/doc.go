// Package redis connects to Redis with go-redis and carries role hierarchy
// cache invalidations between service instances.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	bus := redis.NewInvalidationBus(client, redis.FromConfig(cfg)...)
//	svc, err := rbac.NewService(store, rbac.WithInvalidationBus(bus))
//
// The same client can back ratelimit.NewRedisStore for the CSRF failure
// limiter, so every instance counts failures in one place.
//
// Healthcheck returns a probe suitable for readiness endpoints.
package redis
