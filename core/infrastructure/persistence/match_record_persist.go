package persistence

import (
	"context"
	"errors"

	"chessmahjong/common/database"
	"chessmahjong/common/log"
	"chessmahjong/core/domain/entity"
	"chessmahjong/core/domain/repository"
	"chessmahjong/core/infrastructure/message/transfer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MatchRecordRepository struct {
	mongo *database.MongoManager
}

func NewMatchRecordRepository(mongo *database.MongoManager) repository.MatchRecordRepository {
	return &MatchRecordRepository{mongo: mongo}
}

// SaveMatchRecord 保存对局记录（元数据）
// 实体带 bson 标签，直接交给驱动编码
func (r *MatchRecordRepository) SaveMatchRecord(ctx context.Context, record *entity.MatchRecord) error {
	collection := r.mongo.Db.Collection("match_records")

	_, err := collection.InsertOne(ctx, record)
	if err != nil {
		log.Error("保存对局记录失败: %v", err)
		return transfer.ErrMongodb
	}
	return nil
}

// FindMatchRecord 根据ID查找对局记录
func (r *MatchRecordRepository) FindMatchRecord(ctx context.Context, recordID primitive.ObjectID) (*entity.MatchRecord, error) {
	collection := r.mongo.Db.Collection("match_records")

	var record entity.MatchRecord
	err := collection.FindOne(ctx, bson.M{"_id": recordID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transfer.ErrMatchRecordNotFound
		}
		log.Error("查询对局记录失败: %v", err)
		return nil, err
	}

	return &record, nil
}

// FindMatchRecordsByUser 查找用户参与的对局记录（分页）
func (r *MatchRecordRepository) FindMatchRecordsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.MatchRecord, error) {
	collection := r.mongo.Db.Collection("match_records")

	filter := bson.M{"players.user_id": userID}
	opts := options.Find().
		SetSort(bson.M{"start_time": -1}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		log.Error("查询用户对局记录失败: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*entity.MatchRecord
	if err := cursor.All(ctx, &records); err != nil {
		log.Error("解析对局记录失败: %v", err)
		return nil, err
	}

	return records, nil
}

// FindMatchRecordByTable 根据桌子ID查找对局记录
func (r *MatchRecordRepository) FindMatchRecordByTable(ctx context.Context, tableID string) (*entity.MatchRecord, error) {
	collection := r.mongo.Db.Collection("match_records")

	var record entity.MatchRecord
	err := collection.FindOne(ctx, bson.M{"table_id": tableID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transfer.ErrMatchRecordNotFound
		}
		log.Error("查询对局记录失败: %v", err)
		return nil, err
	}

	return &record, nil
}

// SaveRoundRecord 保存局记录（每局一个文档）
func (r *MatchRecordRepository) SaveRoundRecord(ctx context.Context, round *entity.RoundRecord) error {
	collection := r.mongo.Db.Collection("round_records")

	_, err := collection.InsertOne(ctx, round)
	if err != nil {
		log.Error("保存局记录失败: %v", err)
		return transfer.ErrMongodb
	}
	return nil
}

// SaveRoundRecords 批量保存局记录（使用 MongoDB InsertMany）
func (r *MatchRecordRepository) SaveRoundRecords(ctx context.Context, rounds []*entity.RoundRecord) error {
	if len(rounds) == 0 {
		return nil
	}

	collection := r.mongo.Db.Collection("round_records")

	docs := make([]any, 0, len(rounds))
	for _, round := range rounds {
		if round == nil {
			continue
		}
		docs = append(docs, round)
	}
	if len(docs) == 0 {
		return nil
	}

	_, err := collection.InsertMany(ctx, docs)
	if err != nil {
		log.Error("批量保存局记录失败: %v", err)
		return transfer.ErrMongodb
	}

	log.Info("批量保存局记录成功: count=%d", len(docs))
	return nil
}

// FindRoundRecords 查找对局的所有局记录（按局数排序）
func (r *MatchRecordRepository) FindRoundRecords(ctx context.Context, matchRecordID primitive.ObjectID) ([]*entity.RoundRecord, error) {
	collection := r.mongo.Db.Collection("round_records")

	filter := bson.M{"match_record_id": matchRecordID}
	opts := options.Find().SetSort(bson.M{"round_number": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		log.Error("查询局记录失败: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var rounds []*entity.RoundRecord
	if err := cursor.All(ctx, &rounds); err != nil {
		log.Error("解析局记录失败: %v", err)
		return nil, err
	}

	return rounds, nil
}
