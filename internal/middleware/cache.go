package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	cacheHitKey  = "cache_hit"
	cacheHeader  = "X-Cache"
	cacheHitVal  = "HIT"
	cacheMissVal = "MISS"
)

// SetCacheHit marks whether the handler served its payload from cache. The value is
// exposed through the X-Cache response header.
func SetCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	c.Set(cacheHitKey, hit)
	value := cacheMissVal
	if hit {
		value = cacheHitVal
	}
	c.Header(cacheHeader, value)
}

// CacheHit reports what the handler recorded with SetCacheHit.
func CacheHit(c *gin.Context) (hit bool, recorded bool) {
	if c == nil {
		return false, false
	}
	value, exists := c.Get(cacheHitKey)
	if !exists {
		return false, false
	}
	hit, ok := value.(bool)
	return hit, ok
}
