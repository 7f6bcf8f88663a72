package chessmj

// Hand14 按牌种计数的手牌，下标就是 TileKind
type Hand14 [KindCount]uint8

// CountsFromTiles 把实体牌压成计数
// 有非法牌种或某种超过四张时返回 false
func CountsFromTiles(tiles []Tile) (Hand14, bool) {
	var h Hand14
	for _, t := range tiles {
		if !t.Kind.IsValid() {
			return h, false
		}
		h[t.Kind]++
		if h[t.Kind] > CopyCount {
			return h, false
		}
	}
	return h, true
}

// Total 手牌总张数
func (h Hand14) Total() int {
	total := 0
	for i := 0; i < KindCount; i++ {
		total += int(h[i])
	}
	return total
}

// MeldWitness 分解出的一组面子
// 刻子三个 Kind 相同，顺子按顺子定义的顺序排
type MeldWitness struct {
	IsRun bool
	Kinds [3]TileKind
}

// Decomposition 牌型分解结果
// Possible 为 false 时其余字段无意义
type Decomposition struct {
	Possible bool
	PairKind TileKind // 雀头牌种，不要求雀头时为 -1
	Melds    []MeldWitness
}

// Solve 判断手牌能否恰好分解成指定数量的面子和雀头，并给出一种分法
// 入参是值拷贝，调用方的手牌不会被改动
func Solve(h Hand14, meldsNeeded, pairsNeeded int) Decomposition {
	failed := Decomposition{Possible: false, PairKind: -1}

	if meldsNeeded < 0 || pairsNeeded < 0 || pairsNeeded > 1 {
		return failed
	}
	// 张数对不上直接失败，省掉整个搜索
	if h.Total() != 3*meldsNeeded+2*pairsNeeded {
		return failed
	}

	melds := make([]MeldWitness, 0, meldsNeeded)

	if pairsNeeded == 1 {
		// 先定雀头再组面子，同一对雀头只试一次
		for kind := 0; kind < KindCount; kind++ {
			if h[kind] < 2 {
				continue
			}
			work := h
			work[kind] -= 2
			if formMelds(&work, meldsNeeded, &melds) {
				return Decomposition{Possible: true, PairKind: TileKind(kind), Melds: melds}
			}
			melds = melds[:0]
		}
		return failed
	}

	if formMelds(&h, meldsNeeded, &melds) {
		return Decomposition{Possible: true, PairKind: -1, Melds: melds}
	}
	return failed
}

// formMelds 把剩余计数组成 need 组面子，组成则把见证追加进 out
// 回溯时恢复计数，找到第一种分法就停
func formMelds(h *Hand14, need int, out *[]MeldWitness) bool {
	if need == 0 {
		return h.Total() == 0
	}

	// 找到第一个还有牌的牌种，它必须被用掉，否则死局
	first := -1
	for kind := 0; kind < KindCount; kind++ {
		if h[kind] > 0 {
			first = kind
			break
		}
	}
	if first < 0 {
		return false
	}
	kind := TileKind(first)

	// 尝试刻子
	if h[first] >= 3 {
		h[first] -= 3
		*out = append(*out, MeldWitness{IsRun: false, Kinds: [3]TileKind{kind, kind, kind}})
		if formMelds(h, need-1, out) {
			return true
		}
		*out = (*out)[:len(*out)-1]
		h[first] += 3
	}

	// 尝试包含该牌种的顺子，兵卒没有顺子定义
	if def, ok := RunForKind(kind); ok {
		a, b, c := def.Kinds[0], def.Kinds[1], def.Kinds[2]
		if h[a] > 0 && h[b] > 0 && h[c] > 0 {
			h[a]--
			h[b]--
			h[c]--
			*out = append(*out, MeldWitness{IsRun: true, Kinds: def.Kinds})
			if formMelds(h, need-1, out) {
				return true
			}
			*out = (*out)[:len(*out)-1]
			h[a]++
			h[b]++
			h[c]++
		}
	}

	return false
}
