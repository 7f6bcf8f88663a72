package game

import (
	"errors"
	"strings"
	"testing"

	"chessmahjong/core/infrastructure/message/transfer"
	"chessmahjong/game/engines"
	"chessmahjong/game/share"
)

// fakeEngine 只记录调用，不跑真实牌局
type fakeEngine struct {
	initialized bool
	closed      bool
}

func (f *fakeEngine) InitializeEngine(tableID string, users map[string]*share.UserInfo) error {
	f.initialized = true
	return nil
}
func (f *fakeEngine) NotifyEvent(event share.GameEvent) {}
func (f *fakeEngine) Clone() engines.Engine             { return &fakeEngine{} }
func (f *fakeEngine) Terminate()                        {}
func (f *fakeEngine) Close()                            { f.closed = true }

func fourUsers() map[string]string {
	return map[string]string{
		"u1": "connector-1",
		"u2": "connector-1",
		"u3": "connector-2",
		"u4": "connector-2",
	}
}

func TestNewTable_SeatAssignment(t *testing.T) {
	table, err := NewTable(&fakeEngine{}, fourUsers())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	seats := make(map[int]bool)
	for userID, info := range table.Users {
		if info.UserID != userID {
			t.Fatalf("user info ID mismatch: %s vs %s", info.UserID, userID)
		}
		if info.SeatIndex < 0 || info.SeatIndex >= MaxPlayers {
			t.Fatalf("seat %d out of range for %s", info.SeatIndex, userID)
		}
		if seats[info.SeatIndex] {
			t.Fatalf("seat %d assigned twice", info.SeatIndex)
		}
		seats[info.SeatIndex] = true
	}
	if len(seats) != MaxPlayers {
		t.Fatalf("expected %d distinct seats, got %d", MaxPlayers, len(seats))
	}
}

func TestNewTable_RejectsWrongPlayerCount(t *testing.T) {
	users := fourUsers()
	delete(users, "u4")
	if _, err := NewTable(&fakeEngine{}, users); !errors.Is(err, transfer.ErrNotEnoughPlayers) {
		t.Fatalf("three players expected ErrNotEnoughPlayers, got %v", err)
	}
}

func TestGenerateTableID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := GenerateTableID()
		if !strings.HasPrefix(id, "table_") {
			t.Fatalf("table ID expected table_ prefix, got %s", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate table ID %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestTable_CloseReleasesEngine(t *testing.T) {
	engine := &fakeEngine{}
	table, err := NewTable(engine, fourUsers())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	table.Close()

	if !engine.closed {
		t.Fatalf("Close expected to close the engine")
	}
	if table.GetStatus() != TableStatusFinished {
		t.Fatalf("closed table expected finished status")
	}
}

func TestTableManager_PrototypeRouting(t *testing.T) {
	tm := NewTableManager()
	proto := &fakeEngine{}
	if err := tm.SetEnginePrototype(int32(engines.CHESS_MAHJONG_4P_ENGINE), proto); err != nil {
		t.Fatalf("SetEnginePrototype: %v", err)
	}

	table, err := tm.CreateTable(fourUsers(), int32(engines.CHESS_MAHJONG_4P_ENGINE))
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	// 建桌用的是克隆体，原型不动
	if proto.initialized {
		t.Fatalf("prototype must not be initialized directly")
	}

	for _, userID := range table.GetAllUserIDs() {
		got, exists := tm.GetPlayerTable(userID)
		if !exists {
			t.Fatalf("GetPlayerTable(%s) expected a table", userID)
		}
		if got.ID != table.ID {
			t.Fatalf("player %s routed to wrong table", userID)
		}
	}

	if err := tm.DeleteTable(table.ID); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if _, exists := tm.GetPlayerTable("u1"); exists {
		t.Fatalf("deleted table must unroute its players")
	}
}
