package chessmj

import (
	"context"
	"sync"
	"time"

	"chessmahjong/common/log"
	"chessmahjong/core/domain/entity"
	"chessmahjong/core/domain/repository"
	"chessmahjong/game/share"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchPersister 对局持久化组件
// 牌局过程中只在内存里收集事件，整场打完后异步写库
type MatchPersister struct {
	repo         repository.MatchRecordRepository
	matchRecord  *entity.MatchRecord
	rounds       []*entity.RoundRecord // 所有局的数组（整场结束后一次性保存）
	currentRound *entity.RoundRecord   // 当前局（方便操作）
	eventMu      sync.Mutex            // 保护事件收集的并发安全
	closed       bool
}

// NewMatchPersister 创建持久化组件
func NewMatchPersister(repo repository.MatchRecordRepository, tableID string, userMap map[string]*share.UserInfo) *MatchPersister {
	players := make([]entity.PlayerInfo, 0, len(userMap))
	for userID, userInfo := range userMap {
		players = append(players, entity.PlayerInfo{
			UserID:    userID,
			SeatIndex: userInfo.SeatIndex,
		})
	}

	matchRecord := entity.NewMatchRecord(tableID, "chess_mahjong_4p", players)

	return &MatchPersister{
		repo:        repo,
		matchRecord: matchRecord,
		rounds:      make([]*entity.RoundRecord, 0, 8),
		closed:      false,
	}
}

// GetMatchRecordID 获取对局记录ID
func (mp *MatchPersister) GetMatchRecordID() primitive.ObjectID {
	return mp.matchRecord.ID
}

// StartRound 开始新的一局
func (mp *MatchPersister) StartRound(roundNumber, dealerIndex int) {
	if mp.closed {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	mp.currentRound = entity.NewRoundRecord(mp.matchRecord.ID, roundNumber, dealerIndex)
	mp.rounds = append(mp.rounds, mp.currentRound)

	mp.currentRound.AddEvent(entity.EventTypeRoundStart, -1, map[string]interface{}{
		"dealer_index": dealerIndex,
	})
}

// RecordDrawTile 记录摸牌事件
func (mp *MatchPersister) RecordDrawTile(seatIndex int, tile Tile) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	mp.currentRound.AddEvent(entity.EventTypeDrawTile, seatIndex, map[string]interface{}{
		"tile": tileDoc(tile),
	})
}

// RecordDiscardTile 记录出牌事件
func (mp *MatchPersister) RecordDiscardTile(seatIndex int, tile Tile) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	mp.currentRound.AddEvent(entity.EventTypeDiscardTile, seatIndex, map[string]interface{}{
		"tile": tileDoc(tile),
	})
}

// RecordClaimWindow 记录响应窗口开启
func (mp *MatchPersister) RecordClaimWindow(discarderSeat int, tile Tile, askedSeats []int) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	mp.currentRound.AddEvent(entity.EventTypeClaimWindow, discarderSeat, map[string]interface{}{
		"tile":        tileDoc(tile),
		"asked_seats": askedSeats,
	})
}

// RecordClaimSubmit 记录座位提交响应
func (mp *MatchPersister) RecordClaimSubmit(seatIndex int, opType string) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	mp.currentRound.AddEvent(entity.EventTypeClaimSubmit, seatIndex, map[string]interface{}{
		"op_type": opType,
	})
}

// RecordClaimResult 记录窗口裁决结果
func (mp *MatchPersister) RecordClaimResult(outcome Outcome) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	data := map[string]interface{}{
		"kind": int(outcome.Kind),
	}
	if outcome.Action != nil {
		data["action_type"] = outcome.Action.Type
		data["action_seat"] = outcome.Action.PlayerSeat
	}
	if len(outcome.Winners) > 0 {
		data["winners"] = outcome.Winners
	}
	mp.currentRound.AddEvent(entity.EventTypeClaimResult, -1, data)
}

// RecordMeldAction 记录吃碰杠（含暗杠、加杠）
func (mp *MatchPersister) RecordMeldAction(actionType string, seatIndex, fromSeat int, tiles []Tile) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	var eventType string
	switch actionType {
	case OpTypeChi:
		eventType = entity.EventTypeChi
	case OpTypePeng:
		eventType = entity.EventTypePeng
	case OpTypeGang:
		eventType = entity.EventTypeGang
	case OpTypeAnkan:
		eventType = entity.EventTypeAnkan
	case OpTypeKakan:
		eventType = entity.EventTypeKakan
	default:
		return
	}

	tileData := make([]map[string]interface{}, len(tiles))
	for i, t := range tiles {
		tileData[i] = tileDoc(t)
	}
	mp.currentRound.AddEvent(eventType, seatIndex, map[string]interface{}{
		"from_seat": fromSeat,
		"tiles":     tileData,
	})
}

// RecordHu 记录点炮胡，一炮多响时每家一条
func (mp *MatchPersister) RecordHu(claim HuClaim) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	mp.currentRound.AddEvent(entity.EventTypeHu, claim.WinnerSeat, map[string]interface{}{
		"loser_seat": claim.LoserSeat,
		"win_tile":   tileDoc(claim.WinTile),
	})
}

// RecordSelfHu 记录自摸胡
func (mp *MatchPersister) RecordSelfHu(claim HuClaim) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	mp.currentRound.AddEvent(entity.EventTypeSelfHu, claim.WinnerSeat, map[string]interface{}{
		"win_tile": tileDoc(claim.WinTile),
	})
}

// CompleteRound 完成一局
func (mp *MatchPersister) CompleteRound(endType string, claims []HuClaim, nextDealer int) {
	if mp.closed || mp.currentRound == nil {
		return
	}

	mp.eventMu.Lock()
	defer mp.eventMu.Unlock()

	winners := make([]entity.HuClaim, 0, len(claims))
	for _, claim := range claims {
		loserSeat := -1
		if claim.HasLoser {
			loserSeat = claim.LoserSeat
		}
		winners = append(winners, entity.HuClaim{
			WinnerSeat: claim.WinnerSeat,
			LoserSeat:  loserSeat,
			WinTile:    entity.Tile{Kind: int(claim.WinTile.Kind), ID: claim.WinTile.ID},
		})
	}

	mp.currentRound.AddEvent(entity.EventTypeRoundEnd, -1, map[string]interface{}{
		"end_type": endType,
	})
	mp.currentRound.CompleteRound(&entity.RoundResult{
		EndType:    endType,
		Winners:    winners,
		NextDealer: nextDealer,
	})
	mp.currentRound = nil
}

// FinalizeMatch 整场结束，异步写库
// 引擎马上要销毁，不能在 actor 线程里等数据库
func (mp *MatchPersister) FinalizeMatch(aborted bool) {
	if mp.closed {
		return
	}

	mp.eventMu.Lock()
	mp.closed = true
	if aborted {
		mp.matchRecord.AbortMatch()
	} else {
		mp.matchRecord.CompleteMatch()
	}
	record := mp.matchRecord
	rounds := mp.rounds
	mp.rounds = nil
	mp.currentRound = nil
	mp.eventMu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := mp.repo.SaveMatchRecord(ctx, record); err != nil {
			log.Error("保存对局记录失败: tableID=%s, %v", record.TableID, err)
			return
		}
		if err := mp.repo.SaveRoundRecords(ctx, rounds); err != nil {
			log.Error("保存局记录失败: tableID=%s, %v", record.TableID, err)
			return
		}
		log.Info("对局落库完成: tableID=%s, rounds=%d", record.TableID, len(rounds))
	}()
}

func tileDoc(t Tile) map[string]interface{} {
	return map[string]interface{}{
		"kind": int(t.Kind),
		"id":   t.ID,
	}
}
