package tests

import (
	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/boardtest/bleuart"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// BLETest BLE-UART回显测试的套件封装，把配置映射到
// 回显会话参数。零值字段保留会话默认值。
func BLETest(cfg config.BLEConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		opts := bleuart.DefaultOptions()

		if cfg.BaudRate > 0 {
			opts.BaudRate = cfg.BaudRate
		}
		if cfg.ConnectTimeout > 0 {
			opts.ConnectTimeout = cfg.ConnectTimeout
		}
		if cfg.UserTimeout > 0 {
			opts.UserTimeout = cfg.UserTimeout
		}
		opts.DoReset = cfg.DoReset
		opts.ResetActiveLow = cfg.ResetActiveLow
		opts.ActiveStateQuery = cfg.ActiveStateQuery
		if cfg.StateQueryPeriod > 0 {
			opts.StateQueryPeriod = cfg.StateQueryPeriod
		}
		opts.QuietShutdown = cfg.QuietShutdown

		p.Say("Connect a BLE terminal app and send a line of text to echo.")
		return bleuart.RunTest(board, opts)
	}
}
