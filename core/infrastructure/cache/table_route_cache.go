package cache

import (
	"fmt"
	"time"

	"chessmahjong/common/cache"
)

// TableRouteCache 处理 userID -> tableID 的映射
// 重连时靠它把玩家找回原来的桌子
type TableRouteCache struct {
	cache    *cache.GeneralCache
	routeKey string
}

func NewTableRouteCache() (*TableRouteCache, error) {
	generalCache, err := cache.NewGeneralCache(int64(1<<27), 2*time.Hour) // ttl 两小时，最大内存大概 135mb
	if err != nil {
		return nil, fmt.Errorf("创建桌子路由缓存失败: %w", err)
	}

	return &TableRouteCache{cache: generalCache, routeKey: "user:table"}, nil
}

func (c *TableRouteCache) Set(userID, tableID string) bool {
	if userID == "" || tableID == "" {
		return false
	}
	key := fmt.Sprintf("%s:%s", c.routeKey, userID)
	return c.cache.SetWithTTL(key, tableID, 2*time.Hour)
}

func (c *TableRouteCache) Get(userID string) (string, bool) {
	key := fmt.Sprintf("%s:%s", c.routeKey, userID)
	return c.cache.GetString(key)
}

func (c *TableRouteCache) Delete(userID string) {
	key := fmt.Sprintf("%s:%s", c.routeKey, userID)
	c.cache.Delete(key)
}

func (c *TableRouteCache) DeleteBatch(userIDs []string) {
	for _, userID := range userIDs {
		key := fmt.Sprintf("%s:%s", c.routeKey, userID)
		c.cache.Delete(key)
	}
}

func (c *TableRouteCache) Close() {
	c.cache.Close()
}
