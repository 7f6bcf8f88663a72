package repository

import (
	"context"

	"chessmahjong/core/domain/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchRecordRepository 对局记录仓储接口
type MatchRecordRepository interface {
	// SaveMatchRecord 保存对局记录（元数据）
	SaveMatchRecord(ctx context.Context, record *entity.MatchRecord) error

	// FindMatchRecord 根据ID查找对局记录
	FindMatchRecord(ctx context.Context, recordID primitive.ObjectID) (*entity.MatchRecord, error)

	// FindMatchRecordsByUser 查找用户参与的对局记录（分页）
	FindMatchRecordsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.MatchRecord, error)

	// FindMatchRecordByTable 根据桌子ID查找对局记录
	FindMatchRecordByTable(ctx context.Context, tableID string) (*entity.MatchRecord, error)

	// SaveRoundRecord 保存局记录（每局一个文档）
	SaveRoundRecord(ctx context.Context, round *entity.RoundRecord) error

	// SaveRoundRecords 批量保存局记录（使用 MongoDB InsertMany）
	SaveRoundRecords(ctx context.Context, rounds []*entity.RoundRecord) error

	// FindRoundRecords 查找对局的所有局记录（按局数排序）
	FindRoundRecords(ctx context.Context, matchRecordID primitive.ObjectID) ([]*entity.RoundRecord, error)
}
