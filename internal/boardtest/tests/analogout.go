package tests

import (
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// AnalogOutTest 在模拟输出上打一个0到满刻度的斜坡，
// 请操作员用示波器或万用表观察确认。
func AnalogOutTest(cfg config.AnalogOutConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		if !board.Has(cfg.Pin) {
			return boardtest.Skipped(cfg.Pin + " not on this board")
		}

		out, err := board.ClaimAnalogOut(cfg.Pin)
		if err != nil {
			return boardtest.Skipped("analog output unavailable: " + err.Error())
		}
		defer out.Release()

		p.Say("Ramping %s from 0 to full scale, watch with a scope/meter...", cfg.Pin)

		for cycle := 0; cycle < 3; cycle++ {
			for v := 0; v <= 65535; v += 4096 {
				if err := out.SetValue(uint16(v)); err != nil {
					return boardtest.Failed("set value error: "+err.Error(), cfg.Pin)
				}
				time.Sleep(2 * time.Millisecond)
			}
			_ = out.SetValue(65535)
			time.Sleep(50 * time.Millisecond)
			_ = out.SetValue(0)
			time.Sleep(50 * time.Millisecond)
		}

		ok, err := p.Confirm("Did the output ramp as expected?")
		if err != nil {
			return boardtest.Failed("operator input: "+err.Error(), cfg.Pin)
		}
		if !ok {
			return boardtest.Failed("operator reported bad ramp", cfg.Pin)
		}
		return boardtest.Pass(cfg.Pin)
	}
}
