package database

import (
	"context"
	"fmt"
	"time"

	"chessmahjong/common/config"
	"chessmahjong/common/log"

	"github.com/redis/go-redis/v9"
)

// RedisManager 桌子节点只用到在线状态标记这类轻量读写，
// 单机和集群两种客户端按配置二选一
type RedisManager struct {
	Cli        *redis.Client
	ClusterCli *redis.ClusterClient
}

func NewRedis(redisConf config.RedisConf) *RedisManager {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var clusterCli *redis.ClusterClient
	var cli *redis.Client

	var addr string
	if redisConf.Addr != "" {
		addr = redisConf.Addr
	} else if redisConf.Host != "" && redisConf.Port > 0 {
		addr = fmt.Sprintf("%s:%d", redisConf.Host, redisConf.Port)
	} else {
		panic("redis 配置出错")
	}

	if len(redisConf.ClusterAddrs) == 0 {
		cli = redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     redisConf.Password, // 没有密码时为空串，Redis 会忽略
			PoolSize:     redisConf.PoolSize,
			MinIdleConns: redisConf.MinIdleConns,
		})
	} else {
		clusterCli = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        redisConf.ClusterAddrs,
			Password:     redisConf.Password,
			PoolSize:     redisConf.PoolSize,
			MinIdleConns: redisConf.MinIdleConns,
		})
	}
	if cli != nil {
		if err := cli.Ping(ctx).Err(); err != nil {
			log.Fatal("redis 连接错误: %v", err)
			return nil
		}
	}
	if clusterCli != nil {
		if err := clusterCli.Ping(ctx).Err(); err != nil {
			log.Fatal("redisCluster 连接错误: %v", err)
			return nil
		}
	}

	return &RedisManager{
		Cli:        cli,
		ClusterCli: clusterCli,
	}
}

func (r *RedisManager) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	if r.Cli != nil {
		return r.Cli.Set(ctx, key, value, expiration).Err()
	}
	if r.ClusterCli != nil {
		return r.ClusterCli.Set(ctx, key, value, expiration).Err()
	}
	return nil
}

func (r *RedisManager) Get(ctx context.Context, key string) *redis.StringCmd {
	if r.Cli != nil {
		return r.Cli.Get(ctx, key)
	}
	if r.ClusterCli != nil {
		return r.ClusterCli.Get(ctx, key)
	}
	return nil
}

func (r *RedisManager) Del(ctx context.Context, keys ...string) error {
	if r.Cli != nil {
		return r.Cli.Del(ctx, keys...).Err()
	}
	if r.ClusterCli != nil {
		return r.ClusterCli.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *RedisManager) Exists(ctx context.Context, key ...string) (int64, error) {
	if r.Cli != nil {
		return r.Cli.Exists(ctx, key...).Result()
	}
	if r.ClusterCli != nil {
		return r.ClusterCli.Exists(ctx, key...).Result()
	}
	return 0, nil
}

func (r *RedisManager) Close() error {
	if r.Cli == nil && r.ClusterCli == nil {
		return nil
	}
	if r.Cli != nil {
		if err := r.Cli.Close(); err != nil {
			log.Error("redis 关闭出错: %v", err)
			return err
		}
	}
	if r.ClusterCli != nil {
		if err := r.ClusterCli.Close(); err != nil {
			log.Error("redisCluster 关闭出错: %v", err)
			return err
		}
	}
	return nil
}
