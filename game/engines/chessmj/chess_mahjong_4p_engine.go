package chessmj

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"chessmahjong/common/config"
	"chessmahjong/common/log"
	"chessmahjong/core/domain/repository"
	"chessmahjong/game"
	"chessmahjong/game/engines"
	"chessmahjong/game/share"
)

const (
	DefaultMaxRoundTime      = 30              // 单回合封顶时间（秒）
	DefaultRoundCompensation = 5               // 每回合补偿时间（秒）
	DefaultClaimWindowTime   = 3               // 响应窗口补偿时间（秒）
	DefaultRoundsPerMatch    = 4               // 整场局数
	DefaultWaitStartTime     = 8 * time.Second // 建桌后等待客户端加载的时间
)

// ChessMahjong4p 象棋麻将四人引擎
// 所有牌局状态只在 actor 协程里改，外部只通过 NotifyEvent 投递事件
type ChessMahjong4p struct {
	State       engines.GameState
	Worker      *game.Worker
	TableID     string
	UserMap     map[string]*share.UserInfo
	Players     [4]*PlayerImage
	TurnManager *TurnManager
	DeckManager *DeckManager
	Searcher    *Searcher
	Arbiter     *ClaimArbiter
	Persister   *MatchPersister
	Rules       config.RulesConf

	DealerIndex int    // 当前庄家
	RoundNumber int    // 当前局数，从 1 开始
	WinsBySeat  [4]int // 各座位累计胡牌数

	lastDiscard LastDiscard
	repo        repository.MatchRecordRepository

	gameEvents      chan share.GameEvent
	gameDone        chan struct{}
	actorExit       chan struct{}
	closed          atomic.Bool
	closeOnce       sync.Once
	roundStartTimer *time.Timer
}

// NewChessMahjong4p 创建引擎原型
// repo 可以为空，此时不落库
func NewChessMahjong4p(worker *game.Worker, repo repository.MatchRecordRepository, rules config.RulesConf) *ChessMahjong4p {
	if rules.TurnSeconds <= 0 {
		rules.TurnSeconds = DefaultMaxRoundTime
	}
	if rules.ClaimWindowSeconds <= 0 {
		rules.ClaimWindowSeconds = DefaultClaimWindowTime
	}
	if rules.RoundCompensation <= 0 {
		rules.RoundCompensation = DefaultRoundCompensation
	}
	if rules.RoundsPerMatch <= 0 {
		rules.RoundsPerMatch = DefaultRoundsPerMatch
	}

	return &ChessMahjong4p{
		State:    engines.GameWaiting,
		Worker:   worker,
		Searcher: NewSearcher(), // 判定缓存全桌共享
		Rules:    rules,
		repo:     repo,
	}
}

// Clone 原型模式克隆，Worker、仓储和判定缓存共享
func (eg *ChessMahjong4p) Clone() engines.Engine {
	return &ChessMahjong4p{
		State:    engines.GameWaiting,
		Worker:   eg.Worker,
		Searcher: eg.Searcher,
		Rules:    eg.Rules,
		repo:     eg.repo,
	}
}

// InitializeEngine 初始化引擎
// users 是 Table.Users，座位在建桌时已经分好
func (eg *ChessMahjong4p) InitializeEngine(tableID string, users map[string]*share.UserInfo) error {
	if len(users) != 4 {
		return fmt.Errorf("象棋麻将需要恰好四个玩家，实际 %d 个", len(users))
	}

	eg.TableID = tableID
	eg.UserMap = users

	var tickers [4]*PlayerTicker
	for userID, userInfo := range users {
		seat := userInfo.SeatIndex
		if seat < 0 || seat >= 4 || eg.Players[seat] != nil {
			return fmt.Errorf("玩家 %s 的座位异常: %d", userID, seat)
		}
		eg.Players[seat] = NewPlayerImage(userID, seat)

		ticker := NewPlayerTicker(eg.Rules.TurnSeconds)
		ticker.SetOnTimeout(eg.makeTimeoutHandler(seat))
		tickers[seat] = ticker
	}

	eg.TurnManager = NewTurnManager(tickers)
	eg.DeckManager = NewDeckManager()
	eg.Arbiter = NewClaimArbiter()
	eg.DealerIndex = 0
	eg.RoundNumber = 1
	eg.State = engines.GameWaiting

	if eg.repo != nil {
		eg.Persister = NewMatchPersister(eg.repo, tableID, users)
	}

	eg.gameEvents = make(chan share.GameEvent, 256)
	eg.gameDone = make(chan struct{})
	eg.actorExit = make(chan struct{})

	go eg.pushMatchSuccessMessage(users)

	// 留出客户端加载时间再开局
	eg.roundStartTimer = time.AfterFunc(DefaultWaitStartTime, func() {
		eg.State = engines.GameInProgress
		eg.NotifyEvent(&StartRoundEvent{})
	})

	go eg.actorLoop()

	log.Info("ChessMahjong4p 初始化完成: tableID=%s", tableID)
	return nil
}

// NotifyEvent 事件入队，由 actor 协程串行消费
func (eg *ChessMahjong4p) NotifyEvent(event share.GameEvent) {
	if event == nil || eg.closed.Load() {
		return
	}

	select {
	case <-eg.gameDone:
	case eg.gameEvents <- event:
	default:
		log.Warn("gameEvents 队列已满, tableID=%s, event=%s", eg.TableID, event.GetEventType())
	}
}

func (eg *ChessMahjong4p) actorLoop() {
	defer close(eg.actorExit)
	for {
		select {
		case <-eg.gameDone:
			return
		case event := <-eg.gameEvents:
			eg.processEvent(event)
		}
	}
}

func (eg *ChessMahjong4p) processEvent(event share.GameEvent) {
	switch event.GetEventType() {
	case "StartRound":
		eg.handleStartRoundEvent()
	case "Timeout":
		if e, ok := event.(*TimeoutEvent); ok {
			eg.handleTimeoutEvent(e.Seat)
		}
	case "Discard":
		if e, ok := event.(*share.DiscardTileEvent); ok {
			eg.handleDiscardTileEvent(e)
		}
	case "HuClaim":
		eg.handleClaimEvent(event.GetUserID(), OpTypeHu)
	case "GangClaim":
		eg.handleClaimEvent(event.GetUserID(), OpTypeGang)
	case "PengClaim":
		eg.handleClaimEvent(event.GetUserID(), OpTypePeng)
	case "ChiClaim":
		eg.handleClaimEvent(event.GetUserID(), OpTypeChi)
	case "Pass":
		eg.handleClaimEvent(event.GetUserID(), OpTypeSkip)
	case "SelfHu":
		eg.handleSelfHuEvent(event.GetUserID())
	case "ConcealedQuad":
		if e, ok := event.(*share.ConcealedQuadEvent); ok {
			eg.handleConcealedQuadEvent(e)
		}
	case "QuadUpgrade":
		if e, ok := event.(*share.QuadUpgradeEvent); ok {
			eg.handleQuadUpgradeEvent(e)
		}
	case "Reconnect":
		eg.handleReconnectEvent(event.GetUserID())
	case "Disconnect":
		eg.handleDisconnectEvent(event.GetUserID())
	case "GameOver":
		eg.handleGameOverEvent()
	default:
		log.Warn("未知的游戏事件: %s", event.GetEventType())
	}
}

// ==================== 一局的开始 ====================

func (eg *ChessMahjong4p) handleStartRoundEvent() {
	eg.DeckManager.InitRound()
	eg.distributeTiles()

	if eg.Persister != nil {
		eg.Persister.StartRound(eg.RoundNumber, eg.DealerIndex)
	}

	eg.broadcastRoundStart()

	// 庄家起手多一张，直接出牌不摸
	eg.dropTurn(eg.DealerIndex, false)
}

// distributeTiles 轮流发 7 张，庄家多发第 8 张
func (eg *ChessMahjong4p) distributeTiles() {
	for i := 0; i < 7; i++ {
		for seat := 0; seat < 4; seat++ {
			target := (eg.DealerIndex + seat) % 4
			tile, ok := eg.DeckManager.Draw()
			if !ok {
				eg.HappenDamageError("发牌时牌堆见底")
				return
			}
			eg.Players[target].AddTile(tile)
		}
	}

	tile, ok := eg.DeckManager.Draw()
	if !ok {
		eg.HappenDamageError("给庄家发第八张时牌堆见底")
		return
	}
	eg.Players[eg.DealerIndex].DrawTile(tile)

	for seat := 0; seat < 4; seat++ {
		SortTiles(eg.Players[seat].Tiles)
	}
}

// dropTurn 让某个座位进入出牌回合
// needTile 为 true 时先摸一张，摸不到就荒牌流局
func (eg *ChessMahjong4p) dropTurn(seatIndex int, needTile bool) {
	if needTile {
		tile, ok := eg.DeckManager.Draw()
		if !ok {
			eg.finishRound(RoundEndExhaustive, nil, (eg.DealerIndex+1)%4)
			return
		}
		eg.Players[seatIndex].DrawTile(tile)
		eg.pushDrawTile(seatIndex, tile)
		eg.pushSelfOptions(seatIndex)
	}

	if err := eg.TurnManager.EnterDropPhase(seatIndex, eg.Rules.RoundCompensation, eg.Rules.TurnSeconds); err != nil {
		eg.HappenDamageError(fmt.Sprintf("进入出牌阶段失败: %v", err))
	}
}

// pushSelfOptions 摸牌后下发自己回合的可选操作（自摸/暗杠/加杠）
func (eg *ChessMahjong4p) pushSelfOptions(seatIndex int) {
	player := eg.Players[seatIndex]
	var ops []*PlayerOperation

	if canSelfHu(player, eg.Searcher) {
		ops = append(ops, &PlayerOperation{Type: OpTypeHu})
	}
	seenKinds := make(map[TileKind]struct{})
	for _, tile := range player.Tiles {
		if _, done := seenKinds[tile.Kind]; done {
			continue
		}
		seenKinds[tile.Kind] = struct{}{}
		if op := ConcealedQuadOption(player, tile.Kind); op != nil {
			ops = append(ops, op)
		}
		if op := QuadUpgradeOption(player, tile.Kind); op != nil {
			ops = append(ops, op)
		}
	}
	if len(ops) == 0 {
		return
	}

	eg.pushMainOptions(seatIndex, ops)
}

// ==================== 出牌 ====================

func (eg *ChessMahjong4p) handleDiscardTileEvent(event *share.DiscardTileEvent) {
	if eg.TurnManager.GetState() != TurnStateWaitMain {
		log.Warn("当前不是出牌阶段，忽略出牌: userID=%s", event.UserID)
		return
	}

	seatIndex, ok := eg.getSeatIndex(event.UserID)
	if !ok || seatIndex != eg.TurnManager.GetCurrentPlayer() {
		log.Warn("不是该玩家的回合，忽略出牌: userID=%s", event.UserID)
		return
	}

	// Stop 返回 false 说明计时器已经超时，超时分支已经代打
	if !eg.TurnManager.GetPlayerTicker(seatIndex).Stop() {
		log.Info("玩家 %d 的出牌已经超时处理", seatIndex)
		return
	}

	tile := Tile{Kind: TileKind(event.Tile.Kind), ID: event.Tile.ID}
	if !eg.Players[seatIndex].DiscardTile(tile) {
		log.Warn("玩家 %d 打出了不在手里的牌: %v", seatIndex, tile.Kind)
		eg.HappenDamageError("出牌与手牌不一致")
		return
	}

	eg.setLastDiscard(seatIndex, tile)
	eg.broadcastDiscard(seatIndex, tile)
	eg.waitReaction(seatIndex)
}

// waitReaction 弃牌后的响应收集
func (eg *ChessMahjong4p) waitReaction(excludeSeat int) {
	eg.TurnManager.EnterSelectingPhase()

	reactions := CalculateAvailableReactions(eg.Players, excludeSeat, eg.lastDiscard.Tile, eg.Searcher)
	if len(reactions) == 0 {
		// 没人能响应，弃牌躺平，轮到下家
		eg.clearLastDiscard()
		next := eg.TurnManager.NextTurn()
		eg.dropTurn(next, true)
		return
	}

	err := eg.Arbiter.OpenWindow(excludeSeat, eg.lastDiscard.Tile, reactions, eg.validateReaction, eg.applyOutcome)
	if err != nil {
		eg.HappenDamageError(fmt.Sprintf("开启响应窗口失败: %v", err))
		return
	}

	if eg.Persister != nil {
		askedSeats := make([]int, 0, len(reactions))
		for seat := range reactions {
			askedSeats = append(askedSeats, seat)
		}
		eg.Persister.RecordClaimWindow(excludeSeat, eg.lastDiscard.Tile, askedSeats)
	}

	eg.broadcastOperations(reactions)
	eg.TurnManager.EnterReactingPhase()

	// 每个被询问的座位单独计时，超时视为弃权
	for seat := range reactions {
		ticker := eg.TurnManager.GetPlayerTicker(seat)
		allocated := ticker.SetAvailable(ticker.GetAvailable() + eg.Rules.ClaimWindowSeconds)
		if err := ticker.Start(allocated); err != nil {
			log.Warn("启动响应计时失败: seat=%d, %v", seat, err)
			eg.Arbiter.TimeoutSeat(seat)
		}
	}
}

// handleClaimEvent 响应窗口内的宣告（胡/杠/碰/吃/过）
func (eg *ChessMahjong4p) handleClaimEvent(userID, opType string) {
	if eg.TurnManager.GetState() != TurnStateWaitReactions {
		log.Warn("当前不在响应阶段，忽略宣告: userID=%s, op=%s", userID, opType)
		return
	}

	seatIndex, ok := eg.getSeatIndex(userID)
	if !ok {
		log.Warn("未知玩家的宣告: userID=%s", userID)
		return
	}

	// Stop 返回 false 说明该座位已经超时按弃权处理
	if !eg.TurnManager.GetPlayerTicker(seatIndex).Stop() {
		log.Info("玩家 %d 的响应已经超时处理", seatIndex)
		return
	}

	if eg.Persister != nil {
		eg.Persister.RecordClaimSubmit(seatIndex, opType)
	}

	eg.submitClaim(seatIndex, opType)
}

// submitClaim 提交响应
// 计时器在提交前已经停了，没给过的操作要降级为弃权，座位不能悬空卡死窗口
func (eg *ChessMahjong4p) submitClaim(seatIndex int, opType string) {
	err := eg.Arbiter.Submit(seatIndex, opType)
	if err == nil {
		return
	}
	log.Warn("响应提交被拒绝: seat=%d, op=%s, %v", seatIndex, opType, err)
	if errors.Is(err, ErrUnknownOp) {
		eg.Arbiter.SubmitPass(seatIndex)
	}
}

// validateReaction 裁决前重校验，选择落空就降级为弃权
func (eg *ChessMahjong4p) validateReaction(seat int, op *PlayerOperation) bool {
	player := eg.Players[seat]
	if player == nil || !eg.lastDiscard.Valid {
		return false
	}

	switch op.Type {
	case OpTypeHu:
		return canHuTile(player, eg.lastDiscard.Tile, eg.Searcher)
	case OpTypeGang:
		return canGangTile(player, eg.lastDiscard.Tile) && eg.tilesStillHeld(player, op.Tiles)
	case OpTypePeng:
		return canPengTile(player, eg.lastDiscard.Tile) && eg.tilesStillHeld(player, op.Tiles)
	case OpTypeChi:
		return canChiTile(player, eg.lastDiscard.Tile) && eg.tilesStillHeld(player, op.Tiles)
	default:
		return false
	}
}

func (eg *ChessMahjong4p) tilesStillHeld(player *PlayerImage, tiles []Tile) bool {
	for _, want := range tiles {
		found := false
		for _, held := range player.Tiles {
			if held.Kind == want.Kind && held.ID == want.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// applyOutcome 响应窗口裁决后的执行，跑在 actor 协程里
func (eg *ChessMahjong4p) applyOutcome(outcome Outcome) {
	eg.TurnManager.EnterChoosingPhase()
	eg.broadcastClaimResult(outcome)

	switch outcome.Kind {
	case OutcomeDeadDiscard:
		eg.clearLastDiscard()
		next := eg.TurnManager.NextTurn()
		eg.dropTurn(next, true)

	case OutcomeHu:
		eg.executeHu(outcome.Winners)

	case OutcomeSingleActor:
		eg.executeReaction(outcome.Action)
	}
}

// executeHu 点炮胡，多家胡时全部成立
func (eg *ChessMahjong4p) executeHu(winners []int) {
	if !eg.lastDiscard.Valid {
		eg.HappenDamageError("胡牌时没有有效弃牌")
		return
	}

	loserSeat := eg.lastDiscard.Seat
	winTile := eg.lastDiscard.Tile

	// 被胡的牌从点炮者的弃牌堆里拿走
	loser := eg.Players[loserSeat]
	if len(loser.DiscardPile) > 0 {
		last := loser.DiscardPile[len(loser.DiscardPile)-1]
		if last.Kind == winTile.Kind && last.ID == winTile.ID {
			loser.DiscardPile = loser.DiscardPile[:len(loser.DiscardPile)-1]
		}
	}

	claims := make([]HuClaim, 0, len(winners))
	for _, winnerSeat := range winners {
		eg.WinsBySeat[winnerSeat]++
		claims = append(claims, HuClaim{
			WinnerSeat: winnerSeat,
			HasLoser:   true,
			LoserSeat:  loserSeat,
			WinTile:    winTile,
		})
	}

	eg.broadcastHu(winners, loserSeat, winTile)
	eg.clearLastDiscard()

	// 多家胡时离点炮者最近的赢家坐庄
	eg.finishRound(RoundEndHu, claims, winners[0])
}

// executeReaction 执行吃碰杠
func (eg *ChessMahjong4p) executeReaction(action *ReactionAction) {
	if action == nil || !eg.lastDiscard.Valid {
		eg.HappenDamageError("执行响应时状态异常")
		return
	}

	discarderSeat := eg.lastDiscard.Seat
	discarder := eg.Players[discarderSeat]
	actor := eg.Players[action.PlayerSeat]

	// 弃牌堆的最后一张必须还是那张被响应的牌
	if len(discarder.DiscardPile) == 0 {
		eg.HappenDamageError("弃牌堆为空，无法执行响应")
		return
	}
	calledTile := discarder.DiscardPile[len(discarder.DiscardPile)-1]
	if calledTile.Kind != eg.lastDiscard.Tile.Kind || calledTile.ID != eg.lastDiscard.Tile.ID {
		eg.HappenDamageError("弃牌堆与响应窗口不一致")
		return
	}

	// 从执行者手里拿走要交出的牌
	for _, tile := range action.Tiles {
		if !actor.RemoveTile(tile) {
			eg.HappenDamageError(fmt.Sprintf("玩家 %d 手里没有响应要交的牌 %v", action.PlayerSeat, tile.Kind))
			return
		}
	}
	discarder.DiscardPile = discarder.DiscardPile[:len(discarder.DiscardPile)-1]

	meldTiles := make([]Tile, 0, len(action.Tiles)+1)
	meldTiles = append(meldTiles, calledTile)
	meldTiles = append(meldTiles, action.Tiles...)
	actor.Melds = append(actor.Melds, Meld{
		Type:  action.Type,
		Tiles: meldTiles,
		From:  discarderSeat,
	})

	eg.clearLastDiscard()
	eg.broadcastMeldAction(action.Type, action.PlayerSeat, discarderSeat, meldTiles)

	// 明杠少一张手牌，要补摸；吃碰直接出牌
	eg.dropTurn(action.PlayerSeat, action.Type == OpTypeGang)
}

// ==================== 自己回合的主动操作 ====================

func (eg *ChessMahjong4p) handleSelfHuEvent(userID string) {
	if eg.TurnManager.GetState() != TurnStateWaitMain {
		log.Warn("当前不是出牌阶段，忽略自摸: userID=%s", userID)
		return
	}

	seatIndex, ok := eg.getSeatIndex(userID)
	if !ok || seatIndex != eg.TurnManager.GetCurrentPlayer() {
		log.Warn("不是该玩家的回合，忽略自摸: userID=%s", userID)
		return
	}

	player := eg.Players[seatIndex]
	if !canSelfHu(player, eg.Searcher) {
		log.Warn("玩家 %d 宣告自摸但牌型不成立", seatIndex)
		return
	}

	if !eg.TurnManager.GetPlayerTicker(seatIndex).Stop() {
		log.Info("玩家 %d 的自摸已经超时处理", seatIndex)
		return
	}

	var winTile Tile
	if player.NewestTile != nil {
		winTile = *player.NewestTile
	} else if len(player.Tiles) > 0 {
		winTile = player.Tiles[len(player.Tiles)-1]
	}

	eg.WinsBySeat[seatIndex]++
	claims := []HuClaim{{
		WinnerSeat: seatIndex,
		HasLoser:   false,
		LoserSeat:  -1,
		WinTile:    winTile,
	}}

	eg.broadcastSelfHu(seatIndex, winTile)

	// 自摸赢家坐庄
	eg.finishRound(RoundEndSelfHu, claims, seatIndex)
}

func (eg *ChessMahjong4p) handleConcealedQuadEvent(event *share.ConcealedQuadEvent) {
	if eg.TurnManager.GetState() != TurnStateWaitMain {
		log.Warn("当前不是出牌阶段，忽略暗杠: userID=%s", event.UserID)
		return
	}

	seatIndex, ok := eg.getSeatIndex(event.UserID)
	if !ok || seatIndex != eg.TurnManager.GetCurrentPlayer() {
		log.Warn("不是该玩家的回合，忽略暗杠: userID=%s", event.UserID)
		return
	}

	player := eg.Players[seatIndex]
	kind := TileKind(event.Tile.Kind)
	if player.CountKind(kind) < 4 {
		log.Warn("玩家 %d 暗杠 %v 不足四张", seatIndex, kind)
		return
	}

	// 从后往前删，不影响遍历下标
	quadTiles := make([]Tile, 0, 4)
	for i := len(player.Tiles) - 1; i >= 0; i-- {
		if player.Tiles[i].Kind == kind {
			quadTiles = append(quadTiles, player.Tiles[i])
			player.Tiles = append(player.Tiles[:i], player.Tiles[i+1:]...)
			if len(quadTiles) == 4 {
				break
			}
		}
	}
	player.Melds = append(player.Melds, Meld{
		Type:  OpTypeAnkan,
		Tiles: quadTiles,
		From:  -1,
	})

	replacement, drew := eg.DeckManager.Draw()
	if !drew {
		eg.finishRound(RoundEndExhaustive, nil, (eg.DealerIndex+1)%4)
		return
	}

	eg.TurnManager.GetPlayerTicker(seatIndex).Stop()
	player.DrawTile(replacement)

	eg.broadcastMeldAction(OpTypeAnkan, seatIndex, -1, quadTiles)
	eg.pushDrawTile(seatIndex, replacement)
	eg.dropTurn(seatIndex, false)
}

func (eg *ChessMahjong4p) handleQuadUpgradeEvent(event *share.QuadUpgradeEvent) {
	if eg.TurnManager.GetState() != TurnStateWaitMain {
		log.Warn("当前不是出牌阶段，忽略加杠: userID=%s", event.UserID)
		return
	}

	seatIndex, ok := eg.getSeatIndex(event.UserID)
	if !ok || seatIndex != eg.TurnManager.GetCurrentPlayer() {
		log.Warn("不是该玩家的回合，忽略加杠: userID=%s", event.UserID)
		return
	}

	player := eg.Players[seatIndex]
	fourth := Tile{Kind: TileKind(event.Tile.Kind), ID: event.Tile.ID}

	// 找到原来碰的刻子
	meldIndex := -1
	for i := range player.Melds {
		if player.Melds[i].Type == OpTypePeng && len(player.Melds[i].Tiles) > 0 && player.Melds[i].Tiles[0].Kind == fourth.Kind {
			meldIndex = i
			break
		}
	}
	if meldIndex < 0 {
		log.Warn("玩家 %d 加杠 %v 但没有对应的碰", seatIndex, fourth.Kind)
		return
	}

	if !player.RemoveTile(fourth) {
		log.Warn("玩家 %d 手里没有加杠的第四张 %v", seatIndex, fourth.Kind)
		return
	}

	replacement, drew := eg.DeckManager.Draw()
	if !drew {
		// 牌堆见底，把第四张还回去按荒牌处理
		player.AddTile(fourth)
		eg.finishRound(RoundEndExhaustive, nil, (eg.DealerIndex+1)%4)
		return
	}

	meld := &player.Melds[meldIndex]
	meld.Type = OpTypeKakan
	meld.Tiles = append(meld.Tiles, fourth)

	eg.TurnManager.GetPlayerTicker(seatIndex).Stop()
	player.DrawTile(replacement)

	eg.broadcastMeldAction(OpTypeKakan, seatIndex, meld.From, meld.Tiles)
	eg.pushDrawTile(seatIndex, replacement)
	eg.dropTurn(seatIndex, false)
}

// ==================== 超时 ====================

func (eg *ChessMahjong4p) handleTimeoutEvent(seatIndex int) {
	switch eg.TurnManager.GetState() {
	case TurnStateWaitMain:
		eg.handleDropTimeout(seatIndex)
	case TurnStateWaitReactions:
		eg.handleReactionTimeout(seatIndex)
	default:
		// 其他阶段的超时没有意义，裁决或执行已经接管
	}
}

// handleDropTimeout 出牌超时，代打刚摸的或最后一张
func (eg *ChessMahjong4p) handleDropTimeout(seatIndex int) {
	if seatIndex != eg.TurnManager.GetCurrentPlayer() {
		return
	}

	player := eg.Players[seatIndex]
	tile, ok := player.DiscardNewestOrLast(player.ExpectedHandCount())
	if !ok {
		eg.HappenDamageError(fmt.Sprintf("玩家 %d 超时代打失败", seatIndex))
		return
	}

	log.Info("玩家 %d 出牌超时，代打 %v", seatIndex, tile.Kind)
	eg.setLastDiscard(seatIndex, tile)
	eg.broadcastDiscard(seatIndex, tile)
	eg.waitReaction(seatIndex)
}

// handleReactionTimeout 响应超时，按弃权处理
func (eg *ChessMahjong4p) handleReactionTimeout(seatIndex int) {
	if eg.Persister != nil {
		eg.Persister.RecordClaimSubmit(seatIndex, OpTypeSkip)
	}
	eg.Arbiter.TimeoutSeat(seatIndex)
}

// ==================== 局与场的收尾 ====================

// finishRound 一局结束
func (eg *ChessMahjong4p) finishRound(endType string, claims []HuClaim, nextDealer int) {
	eg.TurnManager.EnterChoosingPhase()
	eg.Arbiter.Cancel()
	eg.clearLastDiscard()

	eg.broadcastRoundEnd(endType, claims, nextDealer)

	if eg.RoundNumber >= eg.Rules.RoundsPerMatch {
		eg.NotifyEvent(&GameOverEvent{})
		return
	}

	eg.RoundNumber++
	eg.DealerIndex = nextDealer
	for seat := 0; seat < 4; seat++ {
		player := eg.Players[seat]
		player.Tiles = player.Tiles[:0]
		player.DiscardPile = player.DiscardPile[:0]
		player.Melds = player.Melds[:0]
		player.NewestTile = nil
	}
	eg.TurnManager.State = TurnStateIdle

	eg.NotifyEvent(&StartRoundEvent{})
}

func (eg *ChessMahjong4p) handleGameOverEvent() {
	eg.State = engines.GameFinished
	eg.broadcastGameEnd()
	eg.Terminate()
}

// HappenDamageError 牌局崩坏，放弃这张桌子
func (eg *ChessMahjong4p) HappenDamageError(reason string) {
	log.Warn("游戏桌崩坏: tableID=%s, %s", eg.TableID, reason)
	eg.Arbiter.Cancel()
	if eg.Persister != nil {
		eg.Persister.FinalizeMatch(true)
	}
	eg.Terminate()
}

// Terminate 异步请求销毁桌子
func (eg *ChessMahjong4p) Terminate() {
	if eg.Worker != nil {
		eg.Worker.RequestDestroyTable(eg.TableID)
	}
}

// ==================== 重连与掉线 ====================

func (eg *ChessMahjong4p) handleReconnectEvent(userID string) {
	if userInfo, exists := eg.UserMap[userID]; exists {
		userInfo.IsOnline = true
	}
	eg.pushSnapshot(userID)
}

// handleDisconnectEvent 掉线玩家在响应窗口里直接弃权，不拖累别家
func (eg *ChessMahjong4p) handleDisconnectEvent(userID string) {
	userInfo, exists := eg.UserMap[userID]
	if !exists {
		return
	}
	userInfo.SetOffline()

	if eg.TurnManager.GetState() != TurnStateWaitReactions {
		return
	}
	seatIndex := userInfo.SeatIndex
	eg.TurnManager.GetPlayerTicker(seatIndex).Stop()
	if err := eg.Arbiter.SubmitPass(seatIndex); err == nil {
		log.Info("掉线玩家 %d 在响应窗口按弃权处理", seatIndex)
	}
}

// ==================== 辅助 ====================

func (eg *ChessMahjong4p) getSeatIndex(userID string) (int, bool) {
	userInfo, exists := eg.UserMap[userID]
	if !exists {
		return -1, false
	}
	return userInfo.SeatIndex, true
}

func (eg *ChessMahjong4p) setLastDiscard(seatIndex int, tile Tile) {
	eg.lastDiscard = LastDiscard{Seat: seatIndex, Tile: tile, Valid: true}
}

func (eg *ChessMahjong4p) clearLastDiscard() {
	eg.lastDiscard = LastDiscard{}
}

func (eg *ChessMahjong4p) makeTimeoutHandler(seatIndex int) func() {
	return func() {
		eg.NotifyEvent(&TimeoutEvent{Seat: seatIndex})
	}
}

// Close 释放引擎内部资源
func (eg *ChessMahjong4p) Close() {
	eg.closeOnce.Do(func() {
		eg.closed.Store(true)
		if eg.gameDone != nil {
			close(eg.gameDone)
			<-eg.actorExit
			close(eg.gameEvents)
		}
		if eg.roundStartTimer != nil {
			eg.roundStartTimer.Stop()
		}
		if eg.TurnManager != nil {
			eg.TurnManager.stopAllTickers()
			eg.TurnManager = nil
		}
		eg.State = engines.GameFinished
		eg.Worker = nil
		eg.UserMap = nil
		eg.Players = [4]*PlayerImage{}
		eg.DeckManager = nil
		eg.Arbiter = nil
		// Searcher 归原型所有，克隆体不关
		log.Info("ChessMahjong4p 已关闭: tableID=%s", eg.TableID)
	})
}

// ==================== 内部事件 ====================

type TimeoutEvent struct {
	share.GameMessageEvent
	Seat int `json:"seat"`
}

func (e *TimeoutEvent) GetEventType() string {
	return "Timeout"
}

type StartRoundEvent struct {
	share.GameMessageEvent
}

func (e *StartRoundEvent) GetEventType() string {
	return "StartRound"
}

type GameOverEvent struct {
	share.GameMessageEvent
}

func (e *GameOverEvent) GetEventType() string {
	return "GameOver"
}
