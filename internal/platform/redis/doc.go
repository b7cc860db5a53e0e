// Package redis provides a Redis-backed read-through cache for the card
// catalog. Card types and their templates change rarely and are read on every
// due-card request, so they are served from Redis when a cache is configured.
package redis
