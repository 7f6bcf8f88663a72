package chessmj

import (
	"encoding/json"

	"chessmahjong/common/log"
	"chessmahjong/core/infrastructure/message/protocol"
	"chessmahjong/core/infrastructure/message/transfer"
	"chessmahjong/game/share"
)

// 目前有 13 个推送场景，分别是
// 1. 匹配成功
// 2. 一局开始
// 3. 可选操作
// 4. 摸牌
// 5. 出牌
// 6. 吃碰杠（含暗杠、加杠）
// 7. 点炮胡（可能多家）
// 8. 自摸
// 9. 响应窗口裁决结果
// 10. 一局结束
// 11. 整场结束
// 12. 超时代打
// 13. 断线重连快照

// pushMatchSuccessMessage 推送匹配成功消息
func (eg *ChessMahjong4p) pushMatchSuccessMessage(userMap map[string]*share.UserInfo) {
	matchSuccessMsg := &transfer.MatchSuccessDTO{
		TableNodeID: eg.Worker.NodeID,
		Players:     make(map[string]string), // userID -> connectorNodeID
	}
	userIDs := make([]string, 0, len(userMap))
	for userID, userInfo := range userMap {
		matchSuccessMsg.Players[userID] = userInfo.ConnectorNodeID
		userIDs = append(userIDs, userID)
	}
	msgData, err := json.Marshal(matchSuccessMsg)
	if err != nil {
		log.Error("pushMatchSuccessMessage: 序列化消息失败: %v", err)
		return
	}
	eg.dispatchPush(userIDs, transfer.MatchingSuccess, transfer.MatchingSuccess, msgData)
	log.Info("pushMatchSuccessMessage: 推送匹配成功消息给 %d 个玩家", len(userIDs))
}

// broadcastOperations 下发每家可选的响应操作
func (eg *ChessMahjong4p) broadcastOperations(reactions map[int]*PlayerReaction) {
	for seatIndex, reaction := range reactions {
		if len(reaction.Operations) == 0 {
			continue
		}
		userID := eg.Players[seatIndex].UserID
		if userID == "" {
			log.Warn("玩家 %d 没有 userID", seatIndex)
			continue
		}
		data, err := json.Marshal(reaction.Operations)
		if err != nil {
			log.Warn("JSON序列化失败: %v", err)
			continue
		}

		eg.dispatchPush([]string{userID}, transfer.TablePush, transfer.DispatchWaitReaction, data)
	}
}

// pushMainOptions 下发自己回合的可选操作（自摸/暗杠/加杠）
func (eg *ChessMahjong4p) pushMainOptions(seatIndex int, ops []*PlayerOperation) {
	userID := eg.Players[seatIndex].UserID
	if userID == "" {
		log.Warn("玩家 %d 没有 userID", seatIndex)
		return
	}
	data, err := json.Marshal(ops)
	if err != nil {
		log.Warn("JSON序列化失败: %v", err)
		return
	}

	eg.dispatchPush([]string{userID}, transfer.TablePush, transfer.DispatchWaitMain, data)
}

// broadcastRoundStart 推送一局开始（每个玩家收到不同的手牌）
func (eg *ChessMahjong4p) broadcastRoundStart() {
	if eg.DeckManager == nil {
		log.Warn("broadcastRoundStart: DeckManager 为空")
		return
	}

	situationDTO := SituationDTO{
		DealerIndex:    eg.DealerIndex,
		RoundNumber:    eg.RoundNumber,
		RoundsPerMatch: eg.Rules.RoundsPerMatch,
	}

	// 为每个玩家推送（手牌内容不同）
	for _, player := range eg.Players {
		if player == nil || player.UserID == "" {
			continue
		}

		roundStart := RoundStartDTO{
			Situation:     situationDTO,
			HandTiles:     make([]Tile, len(player.Tiles)),
			CurrentTurn:   eg.TurnManager.GetCurrentPlayer(),
			WallRemaining: eg.DeckManager.Remaining(),
		}
		copy(roundStart.HandTiles, player.Tiles)

		data, err := json.Marshal(roundStart)
		if err != nil {
			log.Error("broadcastRoundStart: 序列化失败: %v", err)
			continue
		}

		eg.dispatchPush([]string{player.UserID}, transfer.TablePush, transfer.GameplayRoundStart, data)
	}

	log.Info("broadcastRoundStart: 推送一局开始给所有玩家")
}

// pushDrawTile 推送摸牌（仅自己可见）
func (eg *ChessMahjong4p) pushDrawTile(seatIndex int, tile Tile) {
	player := eg.Players[seatIndex]
	if player == nil {
		return
	}

	userID := player.UserID
	if userID == "" {
		log.Warn("pushDrawTile: 玩家 %d 没有 userID", seatIndex)
		return
	}

	if eg.Persister != nil {
		eg.Persister.RecordDrawTile(seatIndex, tile)
	}

	data, err := json.Marshal(DrawTileDTO{Tile: tile})
	if err != nil {
		log.Error("pushDrawTile: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush([]string{userID}, transfer.TablePush, transfer.GameplayDraw, data)
	log.Info("pushDrawTile: 推送摸牌给玩家 %d, tile: %v", seatIndex, tile.Kind)
}

// broadcastDiscard 广播出牌（所有玩家可见）
func (eg *ChessMahjong4p) broadcastDiscard(seatIndex int, tile Tile) {
	if eg.Persister != nil {
		eg.Persister.RecordDiscardTile(seatIndex, tile)
	}

	data, err := json.Marshal(DiscardTileDTO{SeatIndex: seatIndex, Tile: tile})
	if err != nil {
		log.Error("broadcastDiscard: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush(eg.collectUserIDs(), transfer.TablePush, transfer.GameplayDiscard, data)
	log.Info("broadcastDiscard: 广播出牌，玩家 %d 打出 %v", seatIndex, tile.Kind)
}

// broadcastMeldAction 广播鸣牌（吃、碰、明杠、暗杠、加杠）
// 暗杠不亮牌面，别家只看到动作
func (eg *ChessMahjong4p) broadcastMeldAction(actionType string, seatIndex, fromSeat int, tiles []Tile) {
	if eg.Persister != nil {
		eg.Persister.RecordMeldAction(actionType, seatIndex, fromSeat, tiles)
	}

	var route string
	switch actionType {
	case OpTypeChi:
		route = transfer.GameplayChi
	case OpTypePeng:
		route = transfer.GameplayPeng
	case OpTypeGang:
		route = transfer.GameplayGang
	case OpTypeAnkan:
		route = transfer.GameplayAnkan
	case OpTypeKakan:
		route = transfer.GameplayKakan
	default:
		log.Warn("broadcastMeldAction: 未知动作 %s", actionType)
		return
	}

	shownTiles := tiles
	if actionType == OpTypeAnkan {
		shownTiles = nil
	}

	meldAction := MeldActionDTO{
		ActionType: actionType,
		SeatIndex:  seatIndex,
		FromSeat:   fromSeat,
		Tiles:      shownTiles,
	}

	data, err := json.Marshal(meldAction)
	if err != nil {
		log.Error("broadcastMeldAction: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush(eg.collectUserIDs(), transfer.TablePush, route, data)
	log.Info("broadcastMeldAction: 广播鸣牌，玩家 %d %s，来自玩家 %d", seatIndex, actionType, fromSeat)

	// 暗杠的牌面单独推给自己
	if actionType == OpTypeAnkan {
		owner := eg.Players[seatIndex]
		if owner == nil || owner.UserID == "" {
			return
		}
		meldAction.Tiles = tiles
		ownData, err := json.Marshal(meldAction)
		if err != nil {
			return
		}
		eg.dispatchPush([]string{owner.UserID}, transfer.TablePush, route, ownData)
	}
}

// broadcastHu 广播点炮胡，一炮多响时 winners 有多个座位
func (eg *ChessMahjong4p) broadcastHu(winners []int, loserSeat int, winTile Tile) {
	if eg.Persister != nil {
		for _, winnerSeat := range winners {
			eg.Persister.RecordHu(HuClaim{
				WinnerSeat: winnerSeat,
				HasLoser:   true,
				LoserSeat:  loserSeat,
				WinTile:    winTile,
			})
		}
	}

	data, err := json.Marshal(HuDTO{Winners: winners, LoserSeat: loserSeat, WinTile: winTile})
	if err != nil {
		log.Error("broadcastHu: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush(eg.collectUserIDs(), transfer.TablePush, transfer.GameplayHu, data)
	log.Info("broadcastHu: 广播胡牌，winners=%v, 点炮玩家 %d", winners, loserSeat)
}

// broadcastSelfHu 广播自摸
func (eg *ChessMahjong4p) broadcastSelfHu(winnerSeat int, winTile Tile) {
	if eg.Persister != nil {
		eg.Persister.RecordSelfHu(HuClaim{
			WinnerSeat: winnerSeat,
			HasLoser:   false,
			LoserSeat:  -1,
			WinTile:    winTile,
		})
	}

	data, err := json.Marshal(SelfHuDTO{WinnerSeat: winnerSeat, WinTile: winTile})
	if err != nil {
		log.Error("broadcastSelfHu: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush(eg.collectUserIDs(), transfer.TablePush, transfer.GameplaySelfHu, data)
	log.Info("broadcastSelfHu: 广播自摸，玩家 %d", winnerSeat)
}

// broadcastClaimResult 广播响应窗口裁决结果
func (eg *ChessMahjong4p) broadcastClaimResult(outcome Outcome) {
	if eg.Persister != nil {
		eg.Persister.RecordClaimResult(outcome)
	}

	result := ClaimResultDTO{Kind: int(outcome.Kind), Winners: outcome.Winners}
	if outcome.Action != nil {
		result.ActionType = outcome.Action.Type
		result.ActionSeat = outcome.Action.PlayerSeat
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Error("broadcastClaimResult: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush(eg.collectUserIDs(), transfer.TablePush, transfer.GameplayClaimResult, data)
	log.Info("broadcastClaimResult: 广播裁决结果, kind=%d", outcome.Kind)
}

// broadcastRoundEnd 广播一局结束
func (eg *ChessMahjong4p) broadcastRoundEnd(endType string, claims []HuClaim, nextDealer int) {
	if eg.Persister != nil {
		eg.Persister.CompleteRound(endType, claims, nextDealer)
	}

	claimDTOs := make([]HuClaimDTO, 0, len(claims))
	for _, claim := range claims {
		loserSeat := -1
		if claim.HasLoser {
			loserSeat = claim.LoserSeat
		}
		claimDTOs = append(claimDTOs, HuClaimDTO{
			WinnerSeat: claim.WinnerSeat,
			LoserSeat:  loserSeat,
			WinTile:    claim.WinTile,
		})
	}

	roundEnd := RoundEndDTO{
		EndType:    endType,
		Claims:     claimDTOs,
		Wins:       eg.WinsBySeat,
		NextDealer: nextDealer,
	}

	data, err := json.Marshal(roundEnd)
	if err != nil {
		log.Error("broadcastRoundEnd: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush(eg.collectUserIDs(), transfer.TablePush, transfer.GameplayRoundEnd, data)
	log.Info("broadcastRoundEnd: 广播一局结束，类型: %s", endType)
}

// broadcastGameEnd 广播整场结束
func (eg *ChessMahjong4p) broadcastGameEnd() {
	if eg.Persister != nil {
		eg.Persister.FinalizeMatch(false)
	}

	gameEnd := GameEndDTO{
		RoundsPlayed: eg.RoundNumber,
		Wins:         eg.WinsBySeat,
	}

	data, err := json.Marshal(gameEnd)
	if err != nil {
		log.Error("broadcastGameEnd: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush(eg.collectUserIDs(), transfer.TablePush, transfer.GameplayGameEnd, data)
	log.Info("broadcastGameEnd: 广播整场结束")
}

// pushSnapshot 给重连玩家推送全量快照
// 自己的手牌全量，别家只给张数；暗杠的牌面只对主人可见
func (eg *ChessMahjong4p) pushSnapshot(userID string) {
	userInfo, exists := eg.UserMap[userID]
	if !exists {
		log.Warn("pushSnapshot: 用户 %s 不在桌上", userID)
		return
	}
	viewerSeat := userInfo.SeatIndex

	snapshot := SnapshotDTO{
		Situation: SituationDTO{
			DealerIndex:    eg.DealerIndex,
			RoundNumber:    eg.RoundNumber,
			RoundsPerMatch: eg.Rules.RoundsPerMatch,
		},
		CurrentTurn:   eg.TurnManager.GetCurrentPlayer(),
		TurnState:     turnStateName(eg.TurnManager.GetState()),
		WallRemaining: eg.DeckManager.Remaining(),
		Wins:          eg.WinsBySeat,
	}

	for i := 0; i < 4; i++ {
		player := eg.Players[i]
		if player == nil {
			continue
		}
		seat := SeatSnapshotDTO{
			SeatIndex:   i,
			HandCount:   len(player.Tiles),
			DiscardPile: append([]Tile(nil), player.DiscardPile...),
		}
		for j := range player.Melds {
			meld := player.Melds[j]
			meldDTO := MeldDTO{Type: meld.Type, From: meld.From}
			if !meld.IsConcealed() || i == viewerSeat {
				meldDTO.Tiles = append([]Tile(nil), meld.Tiles...)
			}
			seat.Melds = append(seat.Melds, meldDTO)
		}
		if i == viewerSeat {
			seat.HandTiles = append([]Tile(nil), player.Tiles...)
		}
		snapshot.Seats[i] = seat
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Error("pushSnapshot: 序列化失败: %v", err)
		return
	}

	eg.dispatchPush([]string{userID}, transfer.TablePush, transfer.GameplayStateUpdate, data)
	log.Info("pushSnapshot: 推送快照给重连玩家 %s", userID)
}

func turnStateName(state TurnState) string {
	switch state {
	case TurnStateWaitMain:
		return "waitMain"
	case TurnStateSelecting:
		return "selecting"
	case TurnStateWaitReactions:
		return "waitReactions"
	case TurnStateApplyOperation:
		return "applyOperation"
	default:
		return "idle"
	}
}

// collectUserIDs 收集所有在座玩家ID
func (eg *ChessMahjong4p) collectUserIDs() []string {
	userIDs := make([]string, 0, 4)
	for _, player := range eg.Players {
		if player != nil && player.UserID != "" {
			userIDs = append(userIDs, player.UserID)
		}
	}
	return userIDs
}

// dispatchPush 聚合推送消息（按 connector 分组）
func (eg *ChessMahjong4p) dispatchPush(users []string, connectorRoute, clientRoute string, data []byte) {
	if len(users) == 0 {
		log.Warn("dispatchPush: 用户列表为空")
		return
	}

	connectorGroups := make(map[string][]string) // connectorNodeID -> []userID
	for _, userID := range users {
		if userID == "" {
			continue
		}
		// 从 UserMap 获取 connector 信息（无需加锁，UserMap 在 actor 线程中）
		userInfo, exists := eg.UserMap[userID]
		if !exists {
			log.Warn("dispatchPush: 用户 %s 不在 UserMap 中", userID)
			continue
		}
		connectorNodeID := userInfo.ConnectorNodeID
		if connectorNodeID == "" {
			log.Warn("dispatchPush: 用户 %s 没有 connector 信息", userID)
			continue
		}
		connectorGroups[connectorNodeID] = append(connectorGroups[connectorNodeID], userID)
	}

	for connectorNodeID, userIDs := range connectorGroups {
		packet := &transfer.ServicePacket{
			Source:      eg.Worker.NodeID,
			Destination: connectorNodeID,
			Route:       connectorRoute, // 服务间路由
			PushUser:    userIDs,        // 该 connector 下的所有用户
			Body: &protocol.Message{
				Type:  protocol.Push,
				Route: clientRoute, // 客户端路由
				Data:  data,
			},
		}
		err := eg.Worker.PushMessage(packet)
		if err != nil {
			log.Warn("dispatchPush: 推送给 connector %s 失败: %v, users: %v", connectorNodeID, err, userIDs)
			continue
		}
	}
}

// ==================== 推送数据结构 ====================

// SituationDTO 场况信息
type SituationDTO struct {
	DealerIndex    int `json:"dealerIndex"`    // 庄家座位
	RoundNumber    int `json:"roundNumber"`    // 局数，从 1 开始
	RoundsPerMatch int `json:"roundsPerMatch"` // 整场局数
}

// RoundStartDTO 一局开始信息
type RoundStartDTO struct {
	Situation     SituationDTO `json:"situation"`     // 场况信息
	HandTiles     []Tile       `json:"handTiles"`     // 自己的手牌（仅自己可见）
	CurrentTurn   int          `json:"currentTurn"`   // 当前出牌玩家座位
	WallRemaining int          `json:"wallRemaining"` // 牌堆剩余
}

// DrawTileDTO 摸牌信息
type DrawTileDTO struct {
	Tile Tile `json:"tile"` // 摸到的牌
}

// DiscardTileDTO 出牌信息
type DiscardTileDTO struct {
	SeatIndex int  `json:"seatIndex"` // 出牌玩家座位
	Tile      Tile `json:"tile"`      // 打出的牌
}

// MeldActionDTO 鸣牌信息（吃、碰、杠）
type MeldActionDTO struct {
	ActionType string `json:"actionType"` // "CHI", "PENG", "GANG", "ANKAN", "KAKAN"
	SeatIndex  int    `json:"seatIndex"`  // 鸣牌玩家座位
	FromSeat   int    `json:"fromSeat"`   // 来自哪个玩家，暗杠为 -1
	Tiles      []Tile `json:"tiles"`      // 副露的牌，暗杠对别家为空
}

// HuDTO 点炮胡信息，一炮多响时 Winners 有多个
type HuDTO struct {
	Winners   []int `json:"winners"`   // 按离点炮者的距离排序
	LoserSeat int   `json:"loserSeat"` // 点炮玩家座位
	WinTile   Tile  `json:"winTile"`   // 胡的牌
}

// SelfHuDTO 自摸信息
type SelfHuDTO struct {
	WinnerSeat int  `json:"winnerSeat"`
	WinTile    Tile `json:"winTile"`
}

// ClaimResultDTO 响应窗口裁决结果
type ClaimResultDTO struct {
	Kind       int    `json:"kind"` // OutcomeKind
	ActionType string `json:"actionType,omitempty"`
	ActionSeat int    `json:"actionSeat,omitempty"`
	Winners    []int  `json:"winners,omitempty"`
}

// RoundEndDTO 一局结束信息
type RoundEndDTO struct {
	EndType    string       `json:"endType"` // "HU", "SELF_HU", "DRAW_EXHAUSTIVE", "ABORTED"
	Claims     []HuClaimDTO `json:"claims"`  // 胡牌信息（如果有）
	Wins       [4]int       `json:"wins"`    // 各座位累计胡牌数
	NextDealer int          `json:"nextDealer"`
}

// HuClaimDTO 胡牌信息
type HuClaimDTO struct {
	WinnerSeat int  `json:"winnerSeat"`
	LoserSeat  int  `json:"loserSeat"` // 自摸为 -1
	WinTile    Tile `json:"winTile"`
}

// GameEndDTO 整场结束信息
type GameEndDTO struct {
	RoundsPlayed int    `json:"roundsPlayed"`
	Wins         [4]int `json:"wins"` // 各座位累计胡牌数
}

// MeldDTO 副露信息（快照用）
type MeldDTO struct {
	Type  string `json:"type"`
	Tiles []Tile `json:"tiles,omitempty"` // 暗杠对别家不可见
	From  int    `json:"from"`
}

// SeatSnapshotDTO 单个座位的快照
type SeatSnapshotDTO struct {
	SeatIndex   int       `json:"seatIndex"`
	HandTiles   []Tile    `json:"handTiles,omitempty"` // 只有自己的座位有
	HandCount   int       `json:"handCount"`
	DiscardPile []Tile    `json:"discardPile"`
	Melds       []MeldDTO `json:"melds"`
}

// SnapshotDTO 断线重连快照
type SnapshotDTO struct {
	Situation     SituationDTO       `json:"situation"`
	CurrentTurn   int                `json:"currentTurn"`
	TurnState     string             `json:"turnState"`
	WallRemaining int                `json:"wallRemaining"`
	Wins          [4]int             `json:"wins"`
	Seats         [4]SeatSnapshotDTO `json:"seats"`
}
