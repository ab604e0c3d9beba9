// File: utils/constants.go
package utils

import "time"

// DayGridCachePrefix is the prefix for cached availability day grids.
const DayGridCachePrefix = "daygrid:"

// DayGridCacheTTL is the time-to-live for cached day grids. The cache is
// advisory for calendar rendering; booking commits never read it.
const DayGridCacheTTL = 30 * time.Second
