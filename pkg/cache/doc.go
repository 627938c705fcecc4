// Package cache implements the gateway's TTL response cache with an
// expired-but-retrievable fallback mode.
//
// Entries carry their own logical TTL. An ordinary Get only returns fresh
// entries; GetStale ignores the TTL and serves the last stored value until
// it is overwritten or swept, which is what shields the storefront from
// upstream outages. Physical retention is the logical TTL plus a grace
// window: the memory store sweeps on a fixed interval, the Redis store
// lets Redis expiry do the sweeping.
package cache
