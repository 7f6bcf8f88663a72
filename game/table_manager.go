package game

import (
	"fmt"
	"sync"

	"chessmahjong/common/log"
	"chessmahjong/core/infrastructure/message/transfer"
	"chessmahjong/game/engines"
)

// TableManager 桌子管理器
// 管理本节点的所有牌桌实例，使用原型模式管理 Engine
type TableManager struct {
	tables           map[string]*Table        // tableID -> Table
	playerTable      map[string]string        // userID -> tableID
	enginePrototypes map[int32]engines.Engine // engineType -> Engine 原型
	mu               sync.RWMutex
}

// NewTableManager 创建桌子管理器
func NewTableManager() *TableManager {
	return &TableManager{
		tables:           make(map[string]*Table),
		playerTable:      make(map[string]string),
		enginePrototypes: make(map[int32]engines.Engine),
	}
}

// SetEnginePrototype 注入 Engine 原型
// 在容器初始化时调用
func (tm *TableManager) SetEnginePrototype(engineType int32, engine engines.Engine) error {
	if engine == nil {
		return fmt.Errorf("Engine 原型不能为空")
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.enginePrototypes[engineType] = engine
	log.Info(fmt.Sprintf("TableManager 注入 Engine 原型: engineType=%d", engineType))
	return nil
}

// CreateTable 创建桌子并落座玩家（使用原型模式）
// users: userID -> connector 节点 ID
func (tm *TableManager) CreateTable(users map[string]string, engineType int32) (*Table, error) {
	if len(users) != MaxPlayers {
		return nil, transfer.ErrNotEnoughPlayers
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	// 玩家已在其他桌上时只告警，旧桌由销毁流程自己回收
	for userID := range users {
		if tableID, exists := tm.playerTable[userID]; exists {
			log.Warn("玩家 %s 已在桌子 %s 中", userID, tableID)
		}
	}

	// 步骤 1：从原型克隆 Engine
	prototype, exists := tm.enginePrototypes[engineType]
	if !exists {
		return nil, transfer.ErrEngineUnsupported
	}
	engine := prototype.Clone()
	if engine == nil {
		return nil, fmt.Errorf("克隆游戏引擎失败: engineType=%d", engineType)
	}

	// 步骤 2：创建桌子（注入克隆的 Engine 和已分配座位的玩家）
	table, err := NewTable(engine, users)
	if err != nil {
		return nil, fmt.Errorf("创建桌子失败: %v", err)
	}

	// 步骤 3：更新路由映射
	for userID := range users {
		tm.playerTable[userID] = table.ID
	}

	// 步骤 4：初始化游戏引擎（传入 Table.Users）
	if err := table.Engine.InitializeEngine(table.ID, table.Users); err != nil {
		tm.cleanupTable(table.ID)
		return nil, fmt.Errorf("初始化游戏引擎失败: %v", err)
	}
	tm.tables[table.ID] = table

	log.Info(fmt.Sprintf("TableManager 创建桌子 %s，玩家数: %d，引擎类型: %d", table.ID, len(users), engineType))
	return table, nil
}

// GetTable 获取桌子
func (tm *TableManager) GetTable(tableID string) (*Table, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	table, exists := tm.tables[tableID]
	return table, exists
}

// GetPlayerTable 获取玩家所在桌子
func (tm *TableManager) GetPlayerTable(userID string) (*Table, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tableID, exists := tm.playerTable[userID]
	if !exists {
		return nil, false
	}

	table, exists := tm.tables[tableID]
	return table, exists
}

// DeleteTable 删除桌子
// 会清理桌内所有玩家的路由映射
func (tm *TableManager) DeleteTable(tableID string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	table, exists := tm.tables[tableID]
	if !exists {
		return transfer.ErrTableNotFound
	}

	table.mu.RLock()
	for userID := range table.Users {
		delete(tm.playerTable, userID)
	}
	table.mu.RUnlock()

	// 关闭桌子资源（释放引擎、计时器等）
	table.Close()
	delete(tm.tables, tableID)

	log.Info(fmt.Sprintf("TableManager 删除桌子 %s", tableID))
	return nil
}

// UpdatePlayerConnector 更新玩家的 connector 节点（用于重连）
func (tm *TableManager) UpdatePlayerConnector(userID, newConnectorNodeID string) error {
	tm.mu.RLock()
	table, exists := tm.getPlayerTableLocked(userID)
	tm.mu.RUnlock()

	if !exists {
		return transfer.ErrPlayerNotInTable
	}

	player, exists := table.GetPlayer(userID)
	if !exists {
		return transfer.ErrPlayerNotInTable
	}

	player.SetOnline(newConnectorNodeID)
	log.Info(fmt.Sprintf("TableManager 更新玩家 %s 的 connector 节点: %s", userID, newConnectorNodeID))
	return nil
}

// GetPlayerConnector 获取玩家的 connector 节点 ID
func (tm *TableManager) GetPlayerConnector(userID string) (string, bool) {
	tm.mu.RLock()
	table, exists := tm.getPlayerTableLocked(userID)
	tm.mu.RUnlock()

	if !exists {
		return "", false
	}

	player, exists := table.GetPlayer(userID)
	if !exists {
		return "", false
	}

	return player.ConnectorNodeID, true
}

// getPlayerTableLocked 内部查找，调用方需要持有读锁
func (tm *TableManager) getPlayerTableLocked(userID string) (*Table, bool) {
	tableID, exists := tm.playerTable[userID]
	if !exists {
		return nil, false
	}
	table, exists := tm.tables[tableID]
	return table, exists
}

// GetStats 获取统计信息（桌子数、玩家数）
// 供 Monitor 使用
func (tm *TableManager) GetStats() (gameCount int, playerCount int) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	gameCount = len(tm.tables)

	playerSet := make(map[string]bool)
	for _, table := range tm.tables {
		table.mu.RLock()
		for userID := range table.Users {
			playerSet[userID] = true
		}
		table.mu.RUnlock()
	}
	playerCount = len(playerSet)

	return gameCount, playerCount
}

// GetAllTables 获取所有桌子列表（返回副本）
func (tm *TableManager) GetAllTables() []*Table {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tables := make([]*Table, 0, len(tm.tables))
	for _, table := range tm.tables {
		tables = append(tables, table)
	}
	return tables
}

// cleanupTable 清理桌子（内部方法，需要在持有写锁的情况下调用）
func (tm *TableManager) cleanupTable(tableID string) {
	table, exists := tm.tables[tableID]
	if !exists {
		return
	}

	table.mu.RLock()
	for userID := range table.Users {
		delete(tm.playerTable, userID)
	}
	table.mu.RUnlock()

	table.Close()
	delete(tm.tables, tableID)
}
