package storage

import (
	"MonikaNotify/config"
	"MonikaNotify/storage/database"
	"MonikaNotify/storage/mq"
	"MonikaNotify/storage/redis"
)

// Options 每个进程只初始化自己用到的存储
type Options struct {
	Database bool
	Redis    bool
	MQ       bool
}

// Init 统一初始化存储层
func Init(cfg *config.Config, opts Options) error {
	if opts.Database {
		if err := database.Init(cfg); err != nil {
			return err
		}
	}

	if opts.Redis {
		if err := redis.Init(cfg); err != nil {
			return err
		}
	}

	if opts.MQ {
		if err := mq.Init(cfg); err != nil {
			return err
		}
	}

	return nil
}
