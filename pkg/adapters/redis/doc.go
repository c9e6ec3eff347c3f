// Package redis caches knowledge lookups in Redis.
package redis
