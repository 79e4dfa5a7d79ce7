// Package redis connects to Redis and exposes a readiness probe.
//
// Connect parses REDIS_URL, pings the server and retries according to
// Config. Healthcheck returns a probe suitable for the /health/ready
// endpoint. The client is shared by ratelimit.RedisStore, otp.RedisStorage
// and pending.RedisStore, each namespaced with Config.KeyPrefix.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
