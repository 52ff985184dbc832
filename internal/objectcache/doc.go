// Package objectcache purges a Redis-backed WordPress object cache.
//
// Persistent object cache plugins keep copies of transients, user objects
// and query results in Redis. Deleting transients from the options table
// alone would leave those copies readable, so the transients stage purges
// the cache as well when one is configured.
package objectcache
