// Package redis provides a go-redis client with modkit logging and a
// Redis-backed metadata history store.
//
// Histories live under {key_prefix}:{fqn}.hist, so several pipelines can
// share one Redis database:
//
//	history:
//	  backend: redis
//	  redis:
//	    addr: "localhost:6379"
//	    key_prefix: "modkit"
package redis
