// Package store holds the latest payload per client with TTL-based eviction.
package store
