package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Conf 桌子节点的全局配置，进程启动时由 InitConfig 填充
var Conf TableConfiguration

type BaseConfig struct {
	ID         string `mapstructure:"id"`
	ServerType string `mapstructure:"serverType"`
	MetricPort int    `mapstructure:"metricPort"`
}

type TableConfiguration struct {
	BaseConfig   `mapstructure:",squash"`
	DatabaseConf `mapstructure:"database"`
	EtcdConf     `mapstructure:"etcd"`
	LogConf      `mapstructure:"log"`
	NatsConfig   `mapstructure:"nats"`
	RulesConf    `mapstructure:"rules"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type EtcdConf struct {
	Addrs       []string       `mapstructure:"addrs"`
	RWTimeout   int            `mapstructure:"rwTimeout"`
	DialTimeout int            `mapstructure:"dialTimeout"`
	Register    RegisterServer `mapstructure:"register"`
}

type RegisterServer struct {
	Addr    string `mapstructure:"addr"`
	Domain  string `mapstructure:"domain"`
	Version string `mapstructure:"version"`
	Weight  int    `mapstructure:"weight"`
	Ttl     int    `mapstructure:"ttl"`
}

type DatabaseConf struct {
	MongoConf MongoConf `mapstructure:"mongo"`
	RedisConf RedisConf `mapstructure:"redis"`
}

type MongoConf struct {
	Url         string `mapstructure:"url"`
	Db          string `mapstructure:"db"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MinPoolSize int    `mapstructure:"minPoolSize"`
	MaxPoolSize int    `mapstructure:"maxPoolSize"`
}

type RedisConf struct {
	Addr         string   `mapstructure:"addr"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
	Password     string   `mapstructure:"password"`
	PoolSize     int      `mapstructure:"poolSize"`
	MinIdleConns int      `mapstructure:"minIdleConns"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
}

type NatsConfig struct {
	URL string `json:"url" mapstructure:"url"`
}

// RulesConf 牌局节奏参数，缺省时引擎用内置默认值
type RulesConf struct {
	TurnSeconds        int `mapstructure:"turnSeconds"`        // 单回合基础思考时间
	ClaimWindowSeconds int `mapstructure:"claimWindowSeconds"` // 鸣牌响应窗口
	RoundCompensation  int `mapstructure:"roundCompensation"`  // 每回合补偿秒数
	RoundsPerMatch     int `mapstructure:"roundsPerMatch"`     // 一场对局的局数
}

func InitConfig(configFile string) {
	if err := Load(configFile); err != nil {
		panic(fmt.Errorf("load config %s: %w", configFile, err))
	}
}

func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	var cfg TableConfiguration
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	// NODE_ID 只做覆盖，基础值是 yaml 里的 id
	if nodeID := os.Getenv("NODE_ID"); nodeID != "" {
		cfg.ID = nodeID
	}
	if cfg.ID == "" {
		return fmt.Errorf("node id is empty: set id in %s or NODE_ID env", configFile)
	}
	if cfg.ServerType != "table" {
		return fmt.Errorf("unknown server type: %s", cfg.ServerType)
	}

	Conf = cfg
	return nil
}
