package main

import (
	"github.com/spf13/viper"

	"matchbook.com/internal/engine"
	"matchbook.com/internal/matching"
	"matchbook.com/pkg/config"
	"matchbook.com/pkg/logger"
)

const service = "matchbook"

type Cfg struct {
	Name string        `mapstructure:"name"`
	Log  logger.Config `mapstructure:"log"`
	Book struct {
		PriceScale   int32 `mapstructure:"price_scale"`
		StrictCancel bool  `mapstructure:"strict_cancel"`
	} `mapstructure:"book"`
	Engine struct {
		MailboxSize    int  `mapstructure:"mailbox_size"`
		BatchMax       int  `mapstructure:"batch_max"`
		EventBusSize   int  `mapstructure:"event_bus_size"`
		BlockOnFullBus bool `mapstructure:"block_on_full_bus"`
	} `mapstructure:"engine"`
	Metrics struct {
		Addr string `mapstructure:"addr"` // 为空不起 /metrics
	} `mapstructure:"metrics"`
}

func newViper(file string) *viper.Viper {
	v := config.New(service, file)
	v.SetDefault("name", service)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("book.price_scale", int32(matching.DefaultPriceScale))
	v.SetDefault("book.strict_cancel", false)
	v.SetDefault("engine.mailbox_size", 4096)
	v.SetDefault("engine.batch_max", 256)
	v.SetDefault("engine.event_bus_size", 1<<16)
	v.SetDefault("engine.block_on_full_bus", false)
	v.SetDefault("metrics.addr", "")
	return v
}

func (c *Cfg) engineConfig() engine.Config {
	return engine.Config{
		StrictCancel:   c.Book.StrictCancel,
		MailboxSize:    c.Engine.MailboxSize,
		BatchMax:       c.Engine.BatchMax,
		EventBusSize:   c.Engine.EventBusSize,
		BlockOnFullBus: c.Engine.BlockOnFullBus,
	}
}

func (c *Cfg) priceScale() matching.PriceScale {
	if c.Book.PriceScale < 0 {
		return matching.DefaultPriceScale
	}
	return matching.PriceScale(c.Book.PriceScale)
}
