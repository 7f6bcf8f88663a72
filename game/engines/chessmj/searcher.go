package chessmj

import (
	"time"

	"chessmahjong/common/cache"
	"chessmahjong/common/log"
)

// Searcher 牌型判定器
// 同一手牌反复问能不能胡是常态，判定结果放进本地缓存
type Searcher struct {
	winCache *cache.GeneralCache
}

func NewSearcher() *Searcher {
	winCache, err := cache.NewGeneralCache(int64(1<<24), time.Hour) // 判定结果很小，16mb 足够
	if err != nil {
		// 缓存挂了照样能算，只是慢
		log.Warn("创建牌型判定缓存失败: %v", err)
		winCache = nil
	}
	return &Searcher{winCache: winCache}
}

// CanWin 手牌能否组成指定数量的面子加雀头
func (s *Searcher) CanWin(h Hand14, meldsNeeded, pairsNeeded int) bool {
	key := h.keyWithNeeds(meldsNeeded, pairsNeeded)

	if s.winCache != nil {
		if v, ok := s.winCache.GetBool(key); ok {
			return v
		}
	}

	ok := Solve(h, meldsNeeded, pairsNeeded).Possible

	if s.winCache != nil {
		s.winCache.Set(key, ok)
	}
	return ok
}

// CanWinWithTile 把进张并进手牌再判定，进张后某种超过四张视为不可能
func (s *Searcher) CanWinWithTile(h Hand14, kind TileKind, meldsNeeded, pairsNeeded int) bool {
	if !kind.IsValid() || h[kind] >= CopyCount {
		return false
	}
	work := h
	work[kind]++
	return s.CanWin(work, meldsNeeded, pairsNeeded)
}

// Close 释放缓存
func (s *Searcher) Close() {
	if s.winCache != nil {
		s.winCache.Close()
	}
}

// keyWithNeeds 16 字节缓存键：14 个计数 + 面子数 + 雀头数
func (h Hand14) keyWithNeeds(meldsNeeded, pairsNeeded int) string {
	var b [16]byte
	for i := 0; i < KindCount; i++ {
		b[i] = h[i]
	}
	b[14] = byte(meldsNeeded)
	b[15] = byte(pairsNeeded)
	return string(b[:])
}
