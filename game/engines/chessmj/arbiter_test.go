package chessmj

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func reactionWith(opTypes ...string) *PlayerReaction {
	ops := make([]*PlayerOperation, 0, len(opTypes))
	for _, opType := range opTypes {
		ops = append(ops, &PlayerOperation{Type: opType})
	}
	return &PlayerReaction{Operations: ops}
}

func openTestWindow(t *testing.T, discarder int, reactions map[int]*PlayerReaction, onResolve func(Outcome)) *ClaimArbiter {
	t.Helper()
	ca := NewClaimArbiter()
	err := ca.OpenWindow(discarder, Tile{Kind: BlackGeneral, ID: "d"}, reactions, nil, onResolve)
	if err != nil {
		t.Fatalf("OpenWindow failed: %v", err)
	}
	return ca
}

func TestArbiter_HuBeatsEverything(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypeHu, OpTypePeng),
		2: reactionWith(OpTypeGang),
		3: reactionWith(OpTypePeng),
	}
	ca := openTestWindow(t, 0, reactions, func(o Outcome) { got = &o })

	if err := ca.Submit(1, OpTypeHu); err != nil {
		t.Fatalf("submit hu: %v", err)
	}
	if err := ca.Submit(2, OpTypeGang); err != nil {
		t.Fatalf("submit gang: %v", err)
	}
	if err := ca.Submit(3, OpTypePeng); err != nil {
		t.Fatalf("submit peng: %v", err)
	}

	if got == nil {
		t.Fatalf("window did not resolve after all seats responded")
	}
	if got.Kind != OutcomeHu || !reflect.DeepEqual(got.Winners, []int{1}) {
		t.Fatalf("hu expected to win, got kind=%d winners=%v", got.Kind, got.Winners)
	}
}

func TestArbiter_MultiHuAllWinSorted(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		0: reactionWith(OpTypeHu),
		2: reactionWith(OpTypeHu),
	}
	ca := openTestWindow(t, 3, reactions, func(o Outcome) { got = &o })

	ca.Submit(2, OpTypeHu)
	ca.Submit(0, OpTypeHu)

	if got == nil || got.Kind != OutcomeHu {
		t.Fatalf("both seats expected to hu")
	}
	// 出牌者是 3 号位：0 号位距离 1，2 号位距离 3
	if !reflect.DeepEqual(got.Winners, []int{0, 2}) {
		t.Fatalf("winners expected [0 2] ordered by distance, got %v", got.Winners)
	}
}

func TestArbiter_GangPengProximity(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypePeng),
		3: reactionWith(OpTypeGang),
	}
	ca := openTestWindow(t, 0, reactions, func(o Outcome) { got = &o })

	ca.Submit(3, OpTypeGang)
	ca.Submit(1, OpTypePeng)

	if got == nil || got.Kind != OutcomeSingleActor || got.Action == nil {
		t.Fatalf("expected a single actor outcome")
	}
	// 杠碰同级，离出牌者近的 1 号位赢
	if got.Action.PlayerSeat != 1 || got.Action.Type != OpTypePeng {
		t.Fatalf("closest seat expected to act, got seat=%d type=%s", got.Action.PlayerSeat, got.Action.Type)
	}
}

func TestArbiter_ChiIsLowestTier(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypeChi),
		2: reactionWith(OpTypePeng),
	}
	ca := openTestWindow(t, 0, reactions, func(o Outcome) { got = &o })

	ca.Submit(1, OpTypeChi)
	ca.Submit(2, OpTypePeng)

	if got == nil || got.Action == nil || got.Action.Type != OpTypePeng {
		t.Fatalf("peng expected to beat chi")
	}
}

func TestArbiter_ChiWinsWhenAlone(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypeChi),
		2: reactionWith(OpTypePeng),
	}
	ca := openTestWindow(t, 0, reactions, func(o Outcome) { got = &o })

	ca.Submit(1, OpTypeChi)
	ca.SubmitPass(2)

	if got == nil || got.Action == nil || got.Action.Type != OpTypeChi {
		t.Fatalf("chi expected when higher tiers pass")
	}
}

func TestArbiter_DuplicateSubmitIdempotent(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypePeng, OpTypeGang),
		2: reactionWith(OpTypeChi),
	}
	ca := openTestWindow(t, 0, reactions, func(o Outcome) { got = &o })

	if err := ca.Submit(1, OpTypePeng); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	// 重复提交换操作也不生效
	if err := ca.Submit(1, OpTypeGang); err != nil {
		t.Fatalf("duplicate submit expected nil error, got %v", err)
	}

	ca.SubmitPass(2)

	if got == nil || got.Action == nil || got.Action.Type != OpTypePeng {
		t.Fatalf("first submission expected to stick, got %+v", got)
	}
}

func TestArbiter_LateSubmitRejected(t *testing.T) {
	reactions := map[int]*PlayerReaction{1: reactionWith(OpTypePeng)}
	ca := openTestWindow(t, 0, reactions, nil)

	ca.Submit(1, OpTypePeng)

	if err := ca.Submit(1, OpTypePeng); !errors.Is(err, ErrWindowNotOpen) {
		t.Fatalf("late submit expected ErrWindowNotOpen, got %v", err)
	}
}

func TestArbiter_SeatNotAsked(t *testing.T) {
	reactions := map[int]*PlayerReaction{1: reactionWith(OpTypePeng)}
	ca := openTestWindow(t, 0, reactions, nil)

	if err := ca.Submit(2, OpTypePeng); !errors.Is(err, ErrSeatNotAsked) {
		t.Fatalf("unasked seat expected ErrSeatNotAsked, got %v", err)
	}
}

func TestArbiter_UnknownOpRejected(t *testing.T) {
	reactions := map[int]*PlayerReaction{1: reactionWith(OpTypePeng)}
	ca := openTestWindow(t, 0, reactions, nil)

	if err := ca.Submit(1, OpTypeGang); !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("unoffered op expected ErrUnknownOp, got %v", err)
	}
	// 拒绝之后座位仍然可以正常提交
	if err := ca.Submit(1, OpTypePeng); err != nil {
		t.Fatalf("valid submit after rejection: %v", err)
	}
}

func TestArbiter_TimeoutSeatCountsAsPass(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypeHu),
		2: reactionWith(OpTypePeng),
	}
	ca := openTestWindow(t, 0, reactions, func(o Outcome) { got = &o })

	ca.TimeoutSeat(1)
	ca.Submit(2, OpTypePeng)

	if got == nil || got.Action == nil || got.Action.PlayerSeat != 2 {
		t.Fatalf("timed-out hu expected to be treated as pass")
	}
}

func TestArbiter_ForceResolveAllPass(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypePeng),
		3: reactionWith(OpTypeChi),
	}
	ca := openTestWindow(t, 0, reactions, func(o Outcome) { got = &o })

	ca.ForceResolve()

	if got == nil || got.Kind != OutcomeDeadDiscard {
		t.Fatalf("all-pass window expected dead discard, got %+v", got)
	}
	if ca.State() != WindowResolved {
		t.Fatalf("window expected resolved, got %v", ca.State())
	}
}

func TestArbiter_Cancel(t *testing.T) {
	resolved := false
	reactions := map[int]*PlayerReaction{1: reactionWith(OpTypePeng)}
	ca := openTestWindow(t, 0, reactions, func(Outcome) { resolved = true })

	ca.Cancel()

	if resolved {
		t.Fatalf("cancelled window must not resolve")
	}
	if ca.State() != WindowCancelled {
		t.Fatalf("state expected cancelled, got %v", ca.State())
	}
	if err := ca.Submit(1, OpTypePeng); !errors.Is(err, ErrWindowNotOpen) {
		t.Fatalf("submit after cancel expected ErrWindowNotOpen, got %v", err)
	}
}

func TestArbiter_RevalidationDowngradesToPass(t *testing.T) {
	var got *Outcome
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypePeng),
		2: reactionWith(OpTypeChi),
	}
	ca := NewClaimArbiter()
	// 重校验把 1 号位的碰打掉
	validate := func(seat int, op *PlayerOperation) bool {
		return seat != 1
	}
	err := ca.OpenWindow(0, Tile{Kind: RedHorse, ID: "d"}, reactions, validate, func(o Outcome) { got = &o })
	if err != nil {
		t.Fatalf("OpenWindow failed: %v", err)
	}

	ca.Submit(1, OpTypePeng)
	ca.Submit(2, OpTypeChi)

	if got == nil || got.Action == nil || got.Action.Type != OpTypeChi {
		t.Fatalf("invalidated peng expected to pass, chi should act, got %+v", got)
	}
}

func TestArbiter_OpenWindowErrors(t *testing.T) {
	ca := NewClaimArbiter()

	if err := ca.OpenWindow(0, Tile{}, nil, nil, nil); !errors.Is(err, ErrNothingToJudge) {
		t.Fatalf("empty window expected ErrNothingToJudge, got %v", err)
	}

	reactions := map[int]*PlayerReaction{1: reactionWith(OpTypePeng)}
	if err := ca.OpenWindow(0, Tile{}, reactions, nil, nil); err != nil {
		t.Fatalf("first open: %v", err)
	}
	again := map[int]*PlayerReaction{2: reactionWith(OpTypeChi)}
	if err := ca.OpenWindow(0, Tile{}, again, nil, nil); !errors.Is(err, ErrWindowBusy) {
		t.Fatalf("second open expected ErrWindowBusy, got %v", err)
	}
}

func TestArbiter_PendingSeats(t *testing.T) {
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypePeng),
		3: reactionWith(OpTypeChi),
	}
	ca := openTestWindow(t, 0, reactions, nil)

	if got := ca.PendingSeats(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Fatalf("pending expected [1 3], got %v", got)
	}
	ca.Submit(1, OpTypePeng)
	if got := ca.PendingSeats(); !reflect.DeepEqual(got, []int{3}) {
		t.Fatalf("pending expected [3], got %v", got)
	}
}

func TestArbiter_ResolveCallbackMayReenter(t *testing.T) {
	// 一局结束的路径会在裁决回调里调 Cancel，回调必须在锁外执行
	var got *Outcome
	ca := NewClaimArbiter()
	reactions := map[int]*PlayerReaction{1: reactionWith(OpTypeHu)}
	err := ca.OpenWindow(0, Tile{Kind: BlackGeneral, ID: "d"}, reactions, nil, func(o Outcome) {
		got = &o
		ca.Cancel()
		ca.TimeoutSeat(1)
	})
	if err != nil {
		t.Fatalf("OpenWindow failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- ca.Submit(1, OpTypeHu) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("submit hu: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Submit blocked inside its own resolve callback")
	}

	if got == nil || got.Kind != OutcomeHu || !reflect.DeepEqual(got.Winners, []int{1}) {
		t.Fatalf("hu outcome expected, got %+v", got)
	}
	if ca.State() != WindowResolved {
		t.Fatalf("window expected resolved, got %v", ca.State())
	}
}

func TestSubmitClaim_UnofferedOpBecomesPass(t *testing.T) {
	// 客户端报了个没给过的操作，座位要按弃权处理，窗口不能悬着
	var got *Outcome
	eg := &ChessMahjong4p{Arbiter: NewClaimArbiter()}
	reactions := map[int]*PlayerReaction{
		1: reactionWith(OpTypePeng),
		2: reactionWith(OpTypeChi),
	}
	err := eg.Arbiter.OpenWindow(0, Tile{Kind: RedCannon, ID: "d"}, reactions, nil, func(o Outcome) { got = &o })
	if err != nil {
		t.Fatalf("OpenWindow failed: %v", err)
	}

	eg.submitClaim(1, OpTypeGang)
	eg.submitClaim(2, OpTypeChi)

	if got == nil {
		t.Fatalf("window did not resolve after the unoffered op")
	}
	if got.Action == nil || got.Action.Type != OpTypeChi || got.Action.PlayerSeat != 2 {
		t.Fatalf("chi expected to act alone, got %+v", got)
	}
}

func TestResolveReactions_Deterministic(t *testing.T) {
	build := func() map[int]*PlayerReaction {
		r1 := reactionWith(OpTypeHu)
		r1.ChosenOp = r1.Operations[0]
		r1.Responded = true
		r2 := reactionWith(OpTypeHu)
		r2.ChosenOp = r2.Operations[0]
		r2.Responded = true
		r3 := reactionWith(OpTypePeng)
		r3.ChosenOp = r3.Operations[0]
		r3.Responded = true
		return map[int]*PlayerReaction{1: r1, 2: r2, 3: r3}
	}

	first := ResolveReactions(build(), 0)
	for i := 0; i < 50; i++ {
		if got := ResolveReactions(build(), 0); !reflect.DeepEqual(got, first) {
			t.Fatalf("resolution not deterministic: %+v vs %+v", got, first)
		}
	}
	if !reflect.DeepEqual(first.Winners, []int{1, 2}) {
		t.Fatalf("winners expected [1 2], got %v", first.Winners)
	}
}
