package tests

import (
	"fmt"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// I2CTest 扫描I2C总线，至少有一个设备应答即通过
func I2CTest(cfg config.I2CConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		if !board.Has(cfg.SDAPin) || !board.Has(cfg.SCLPin) {
			return boardtest.Skipped(fmt.Sprintf("%s/%s not on this board", cfg.SDAPin, cfg.SCLPin))
		}

		tested := []string{cfg.SDAPin, cfg.SCLPin}

		bus, err := board.OpenI2C(cfg.SDAPin, cfg.SCLPin)
		if err != nil {
			return boardtest.Failed("i2c open error: "+err.Error(), tested...)
		}
		defer bus.Release()

		addrs, err := bus.Scan()
		if err != nil {
			return boardtest.Failed("scan error: "+err.Error(), tested...)
		}
		if len(addrs) == 0 {
			return boardtest.Failed("no devices responded on bus", tested...)
		}

		for _, a := range addrs {
			p.Say("I2C device found at 0x%02X", a)
		}

		res := boardtest.Pass(tested...)
		res.Info = map[string]interface{}{"addresses": addrs}
		return res
	}
}
