package container

import (
	"fmt"
	"sync"

	"chessmahjong/common/config"
	"chessmahjong/common/log"
	"chessmahjong/core/domain/repository"
	"chessmahjong/core/infrastructure/persistence"
	"chessmahjong/game"
	"chessmahjong/game/engines"
	"chessmahjong/game/engines/chessmj"
)

// TableContainer 桌子节点专用容器
// 继承 BaseContainer 的数据库连接，添加牌桌节点特定的依赖
type TableContainer struct {
	*BaseContainer
	TableWorker *game.Worker
	closed      bool
	mu          sync.Mutex
}

// NewTableContainer 创建桌子节点容器
func NewTableContainer() *TableContainer {
	base := NewBase(config.Conf.DatabaseConf)
	if base == nil {
		log.Fatal("基础容器初始化失败")
		return nil
	}

	matchRepo := persistence.NewMatchRecordRepository(base.mongo)

	worker := game.NewWorker(config.Conf.ID)
	if worker == nil {
		log.Fatal("worker 初始化失败")
		return nil
	}
	worker.SetRedis(base.redis)

	// 原型模式：每种玩法一个引擎原型，建桌时 Clone
	prototypes := createEnginePrototypes(worker, matchRepo)
	for engineType, engine := range prototypes {
		if err := worker.TableManager.SetEnginePrototype(engineType, engine); err != nil {
			log.Fatal("注入 Engine 原型失败: %v", err)
			return nil
		}
	}

	return &TableContainer{
		BaseContainer: base,
		TableWorker:   worker,
	}
}

// createEnginePrototypes 创建所有 Engine 原型，目前只有象棋麻将四人引擎
func createEnginePrototypes(worker *game.Worker, matchRepo repository.MatchRecordRepository) map[int32]engines.Engine {
	prototypes := make(map[int32]engines.Engine)

	prototypes[int32(engines.CHESS_MAHJONG_4P_ENGINE)] = chessmj.NewChessMahjong4p(worker, matchRepo, config.Conf.RulesConf)

	log.Info("TableContainer 创建 Engine 原型完成，共 %d 个引擎", len(prototypes))
	return prototypes
}

// Close 关闭容器资源（幂等操作，可以安全地多次调用）
// 关闭顺序：1. TableWorker 2. BaseContainer（数据库连接）
func (c *TableContainer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	var errs []error

	if c.TableWorker != nil {
		c.TableWorker.Close()
	}
	if c.BaseContainer != nil {
		if err := c.BaseContainer.Close(); err != nil {
			log.Error("BaseContainer 关闭失败: %v", err)
			errs = append(errs, err)
		}
	}

	c.closed = true

	if len(errs) > 0 {
		return fmt.Errorf("关闭资源时发生 %d 个错误", len(errs))
	}

	log.Info("TableContainer 已关闭")
	return nil
}
