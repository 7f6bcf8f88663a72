package chessmj

import (
	"errors"
	"sort"
	"sync"

	"chessmahjong/common/log"
)

type WindowState int

const (
	WindowIdle      WindowState = iota // 没有开着的窗口
	WindowAwaiting                     // 收集各家响应中
	WindowResolving                    // 裁决中
	WindowResolved                     // 已裁决
	WindowCancelled                    // 被取消（牌局崩坏等）
)

var (
	ErrWindowNotOpen  = errors.New("claim window not open")
	ErrWindowBusy     = errors.New("claim window already open")
	ErrSeatNotAsked   = errors.New("seat has no pending claim options")
	ErrUnknownOp      = errors.New("operation not offered to this seat")
	ErrNothingToJudge = errors.New("no reactions to arbitrate")
)

// ValidateFunc 裁决前的重校验
// 返回 false 表示该操作已经不再合法（手牌被别的分支改过），按弃权处理
type ValidateFunc func(seat int, op *PlayerOperation) bool

// ==================== 裁决结果 ====================

type OutcomeKind int

const (
	OutcomeDeadDiscard OutcomeKind = iota // 无人响应，弃牌进入弃牌堆
	OutcomeSingleActor                    // 单个吃碰杠执行者
	OutcomeHu                             // 一家或多家胡牌
)

// Outcome 响应窗口的裁决结果
// SingleActor 时 Action 非空；Hu 时 Winners 按离出牌者的逆时针距离排序
type Outcome struct {
	Kind    OutcomeKind
	Action  *ReactionAction
	Winners []int
}

// HuClaim 约定 WinTile 是 点到的/摸到的 牌
type HuClaim struct {
	WinnerSeat int
	HasLoser   bool
	LoserSeat  int
	WinTile    Tile
}

const (
	RoundEndHu         = "HU"
	RoundEndSelfHu     = "SELF_HU"
	RoundEndExhaustive = "DRAW_EXHAUSTIVE"
	RoundEndAborted    = "ABORTED"
)

// ClaimArbiter 响应窗口仲裁器
// 收满或超时后按 胡 > 杠/碰 > 吃 的优先级裁决，一张牌可以多家胡
// 所有修改走互斥锁，裁决本身是纯函数
type ClaimArbiter struct {
	mu            sync.Mutex
	state         WindowState
	discarderSeat int
	discard       Tile
	reactions     map[int]*PlayerReaction
	validate      ValidateFunc
	onResolve     func(Outcome)
}

func NewClaimArbiter() *ClaimArbiter {
	return &ClaimArbiter{state: WindowIdle}
}

// OpenWindow 开启响应窗口
// reactions 只含有合法操作的座位；为空的窗口没有意义，返回错误
func (ca *ClaimArbiter) OpenWindow(discarderSeat int, discard Tile, reactions map[int]*PlayerReaction, validate ValidateFunc, onResolve func(Outcome)) error {
	ca.mu.Lock()
	defer ca.mu.Unlock()

	if ca.state == WindowAwaiting || ca.state == WindowResolving {
		return ErrWindowBusy
	}
	if len(reactions) == 0 {
		return ErrNothingToJudge
	}

	ca.state = WindowAwaiting
	ca.discarderSeat = discarderSeat
	ca.discard = discard
	ca.reactions = reactions
	ca.validate = validate
	ca.onResolve = onResolve
	return nil
}

// Submit 座位提交选择的操作类型
// 重复提交被忽略（幂等），窗口关闭后的迟到提交被拒绝
// 裁决回调在放锁之后才执行，回调里允许再进仲裁器
func (ca *ClaimArbiter) Submit(seat int, opType string) error {
	var fire func()
	defer func() {
		if fire != nil {
			fire()
		}
	}()
	ca.mu.Lock()
	defer ca.mu.Unlock()

	if ca.state != WindowAwaiting {
		log.Warn("响应窗口已关闭，拒绝迟到提交: seat=%d, op=%s", seat, opType)
		return ErrWindowNotOpen
	}

	reaction, exists := ca.reactions[seat]
	if !exists {
		log.Warn("座位 %d 没有待响应的操作，提交被拒绝", seat)
		return ErrSeatNotAsked
	}
	if reaction.Responded {
		log.Warn("座位 %d 重复提交响应，忽略", seat)
		return nil
	}

	if opType == OpTypeSkip {
		reaction.ChosenOp = nil
		reaction.Responded = true
		fire = ca.resolveIfCompleteLocked()
		return nil
	}

	var chosen *PlayerOperation
	for _, op := range reaction.Operations {
		if op.Type == opType {
			chosen = op
			break
		}
	}
	if chosen == nil {
		log.Warn("座位 %d 提交了未提供的操作 %s，拒绝", seat, opType)
		return ErrUnknownOp
	}

	reaction.ChosenOp = chosen
	reaction.Responded = true
	fire = ca.resolveIfCompleteLocked()
	return nil
}

// SubmitPass 座位明确弃权
func (ca *ClaimArbiter) SubmitPass(seat int) error {
	return ca.Submit(seat, OpTypeSkip)
}

// TimeoutSeat 单个座位超时，视为弃权
func (ca *ClaimArbiter) TimeoutSeat(seat int) {
	var fire func()
	defer func() {
		if fire != nil {
			fire()
		}
	}()
	ca.mu.Lock()
	defer ca.mu.Unlock()

	if ca.state != WindowAwaiting {
		return
	}
	reaction, exists := ca.reactions[seat]
	if !exists || reaction.Responded {
		return
	}
	reaction.ChosenOp = nil
	reaction.Responded = true
	log.Info("座位 %d 响应超时，按弃权处理", seat)
	fire = ca.resolveIfCompleteLocked()
}

// ForceResolve 窗口整体超时，没响应的全部按弃权处理后立即裁决
func (ca *ClaimArbiter) ForceResolve() {
	var fire func()
	defer func() {
		if fire != nil {
			fire()
		}
	}()
	ca.mu.Lock()
	defer ca.mu.Unlock()

	if ca.state != WindowAwaiting {
		return
	}
	for seat, reaction := range ca.reactions {
		if !reaction.Responded {
			reaction.ChosenOp = nil
			reaction.Responded = true
			log.Info("座位 %d 未响应，窗口超时按弃权处理", seat)
		}
	}
	fire = ca.resolveLocked()
}

// Cancel 丢弃窗口，不产生裁决结果
func (ca *ClaimArbiter) Cancel() {
	ca.mu.Lock()
	defer ca.mu.Unlock()

	if ca.state != WindowAwaiting {
		return
	}
	ca.state = WindowCancelled
	ca.reactions = nil
	ca.validate = nil
	ca.onResolve = nil
}

// State 当前窗口状态
func (ca *ClaimArbiter) State() WindowState {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.state
}

// PendingSeats 还没响应的座位
func (ca *ClaimArbiter) PendingSeats() []int {
	ca.mu.Lock()
	defer ca.mu.Unlock()

	var seats []int
	for seat, reaction := range ca.reactions {
		if !reaction.Responded {
			seats = append(seats, seat)
		}
	}
	sort.Ints(seats)
	return seats
}

// resolveIfCompleteLocked 收满响应就裁决，调用方持锁
// 返回待执行的裁决回调，没到裁决时机返回 nil
func (ca *ClaimArbiter) resolveIfCompleteLocked() func() {
	for _, reaction := range ca.reactions {
		if !reaction.Responded {
			return nil
		}
	}
	return ca.resolveLocked()
}

// resolveLocked 重校验后裁决，调用方持锁
// 回调不能在锁内调用：引擎的回调会走到 Cancel，再拿一次锁就死锁了
func (ca *ClaimArbiter) resolveLocked() func() {
	ca.state = WindowResolving

	// 裁决前重校验：手牌可能在别的分支变了，失效的选择降级为弃权
	if ca.validate != nil {
		for seat, reaction := range ca.reactions {
			if reaction.ChosenOp == nil {
				continue
			}
			if !ca.validate(seat, reaction.ChosenOp) {
				log.Warn("座位 %d 的操作 %s 重校验失败，降级为弃权", seat, reaction.ChosenOp.Type)
				reaction.ChosenOp = nil
			}
		}
	}

	outcome := ResolveReactions(ca.reactions, ca.discarderSeat)

	ca.state = WindowResolved
	callback := ca.onResolve
	ca.reactions = nil
	ca.validate = nil
	ca.onResolve = nil

	if callback == nil {
		return nil
	}
	return func() { callback(outcome) }
}

// ResolveReactions 纯裁决函数：同样的输入永远给同样的结果
// 优先级 胡 > 杠/碰 > 吃；多家胡全部成立；杠碰撞车时离出牌者近的赢
func ResolveReactions(reactions map[int]*PlayerReaction, discarderSeat int) Outcome {
	// 第一梯队：胡，全部收集
	var winners []int
	for seat, reaction := range reactions {
		if reaction.ChosenOp != nil && reaction.ChosenOp.Type == OpTypeHu {
			winners = append(winners, seat)
		}
	}
	if len(winners) > 0 {
		sort.Slice(winners, func(i, j int) bool {
			return seatDistance(winners[i], discarderSeat) < seatDistance(winners[j], discarderSeat)
		})
		return Outcome{Kind: OutcomeHu, Winners: winners}
	}

	// 第二梯队：杠和碰同级，撞车时离出牌者近的赢
	if action := pickClosest(reactions, discarderSeat, OpTypeGang, OpTypePeng); action != nil {
		return Outcome{Kind: OutcomeSingleActor, Action: action}
	}

	// 第三梯队：吃，只可能有下家一个
	if action := pickClosest(reactions, discarderSeat, OpTypeChi); action != nil {
		return Outcome{Kind: OutcomeSingleActor, Action: action}
	}

	return Outcome{Kind: OutcomeDeadDiscard}
}

// pickClosest 在给定操作类型里挑离出牌者最近的座位
func pickClosest(reactions map[int]*PlayerReaction, discarderSeat int, opTypes ...string) *ReactionAction {
	bestSeat := -1
	bestDistance := 4
	var bestOp *PlayerOperation

	for seat, reaction := range reactions {
		if reaction.ChosenOp == nil {
			continue
		}
		matched := false
		for _, opType := range opTypes {
			if reaction.ChosenOp.Type == opType {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if d := seatDistance(seat, discarderSeat); d < bestDistance {
			bestDistance = d
			bestSeat = seat
			bestOp = reaction.ChosenOp
		}
	}

	if bestSeat < 0 {
		return nil
	}
	return &ReactionAction{
		Type:       bestOp.Type,
		PlayerSeat: bestSeat,
		Tiles:      bestOp.Tiles,
	}
}

// seatDistance 座位离出牌者的逆时针距离（1~3）
func seatDistance(seat, discarderSeat int) int {
	d := (seat - discarderSeat + 4) % 4
	if d == 0 {
		return 4
	}
	return d
}
