// Package redis holds the Redis-backed pieces of the site: the shared
// submission rate limiter and the client hooks that instrument it.
package redis
