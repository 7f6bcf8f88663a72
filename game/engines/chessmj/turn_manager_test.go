package chessmj

import (
	"sync/atomic"
	"testing"
	"time"
)

func newTestTurnManager(seconds int) *TurnManager {
	var tickers [4]*PlayerTicker
	for i := 0; i < 4; i++ {
		tickers[i] = NewPlayerTicker(seconds)
	}
	return NewTurnManager(tickers)
}

func TestTurnManager_NextTurnWraps(t *testing.T) {
	tm := newTestTurnManager(30)
	tm.TurnPointer = 3
	if got := tm.NextTurn(); got != 0 {
		t.Fatalf("turn after seat 3 expected 0, got %d", got)
	}
}

func TestTurnManager_EnterDropPhaseValidation(t *testing.T) {
	tm := newTestTurnManager(30)
	if err := tm.EnterDropPhase(-1, 5, 30); err == nil {
		t.Fatalf("negative seat expected an error")
	}
	if err := tm.EnterDropPhase(4, 5, 30); err == nil {
		t.Fatalf("out of range seat expected an error")
	}

	if err := tm.EnterDropPhase(2, 5, 30); err != nil {
		t.Fatalf("valid seat: %v", err)
	}
	if tm.GetCurrentPlayer() != 2 || tm.GetState() != TurnStateWaitMain {
		t.Fatalf("drop phase expected seat 2 in WaitMain")
	}
	tm.stopAllTickers()
}

func TestTurnManager_AllocationCappedByMaxRoundTime(t *testing.T) {
	tm := newTestTurnManager(100)
	if err := tm.EnterDropPhase(0, 5, 30); err != nil {
		t.Fatalf("EnterDropPhase: %v", err)
	}
	ticker := tm.GetPlayerTicker(0)
	if got := ticker.GetAvailable(); got != 30 {
		t.Fatalf("allocation expected capped at 30, got %d", got)
	}
	tm.stopAllTickers()
}

func TestPlayerTicker_StopWhenIdle(t *testing.T) {
	pt := NewPlayerTicker(30)
	if pt.Stop() {
		t.Fatalf("stopping an idle ticker expected false")
	}
}

func TestPlayerTicker_StartValidation(t *testing.T) {
	pt := NewPlayerTicker(3)
	if err := pt.Start(10); err == nil {
		t.Fatalf("starting beyond available time expected an error")
	}

	if err := pt.Start(3); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := pt.Start(1); err == nil {
		t.Fatalf("double start expected an error")
	}
	pt.Stop()
}

func TestPlayerTicker_TimeoutFiresCallback(t *testing.T) {
	pt := NewPlayerTicker(1)
	var fired atomic.Bool
	pt.SetOnTimeout(func() { fired.Store(true) })

	if err := pt.Start(1); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for !fired.Load() {
		select {
		case <-deadline:
			t.Fatalf("timeout callback did not fire")
		case <-time.After(50 * time.Millisecond):
		}
	}

	if pt.GetState() != StateTimeout {
		t.Fatalf("state expected timeout, got %v", pt.GetState())
	}
	if pt.Stop() {
		t.Fatalf("stop after timeout expected false")
	}
}

func TestPlayerTicker_StopDeductsUsedTime(t *testing.T) {
	pt := NewPlayerTicker(10)
	if err := pt.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 等 cancel 挂上再停
	time.Sleep(100 * time.Millisecond)
	if !pt.Stop() {
		t.Fatalf("stopping a running ticker expected true")
	}

	// Stop 返回时扣时和状态切换都已生效，不用轮询等计时协程
	if pt.GetState() != StateStopped {
		t.Fatalf("state expected stopped right after Stop, got %v", pt.GetState())
	}
	if got := pt.GetAvailable(); got > 10 || got < 9 {
		t.Fatalf("available time expected roughly intact, got %d", got)
	}
}

func TestPlayerTicker_AvailableReadIsLocked(t *testing.T) {
	pt := NewPlayerTicker(10)
	if err := pt.Start(10); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 计时协程还活着的时候并发读剩余时间，-race 下不能有告警
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			pt.GetAvailable()
		}
		close(done)
	}()
	<-done

	time.Sleep(100 * time.Millisecond)
	pt.Stop()
	if got := pt.SetAvailable(pt.GetAvailable() + 3); got > 13 {
		t.Fatalf("claim window top-up expected at most 13, got %d", got)
	}
}
