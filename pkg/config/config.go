package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"matchbook.com/pkg/logger"
)

// New 约定：config/{service}.yaml，或当前目录 {service}.yaml；
// file 非空时直接使用该文件。
//
// 环境变量覆盖，例如：
//
//	MATCHBOOK_ENGINE_MAILBOX_SIZE 覆盖 engine.mailbox_size
func New(service, file string) *viper.Viper {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(service)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(strings.ToUpper(service))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load 读一次配置到 out。没有配置文件时只用默认值和环境变量。
func Load(v *viper.Viper, out interface{}) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return v.Unmarshal(out)
}

// LoadAndWatch 读配置并监听文件变更，变更后重新 Unmarshal 到 out 再回调 onChange。
// onChange 在 fsnotify 的 goroutine 里执行。
func LoadAndWatch(v *viper.Viper, out interface{}, onChange func()) error {
	if err := Load(v, out); err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}
	ctx := context.Background()
	logger.Info(ctx, "config loaded", zap.String("file", v.ConfigFileUsed()))

	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info(ctx, "config file changed", zap.String("file", e.Name))
		if err := v.Unmarshal(out); err != nil {
			logger.Error(ctx, "reload config", zap.Error(err))
			return
		}
		if onChange != nil {
			onChange()
		}
	})
	v.WatchConfig()
	return nil
}
