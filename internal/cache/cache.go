package cache

import "errors"

// ErrCacheMiss is returned when the requested key is not present in the
// cache. Callers fall back to the durable store on a miss; any other
// error means the cache itself is unavailable.
var ErrCacheMiss = errors.New("cache miss")
