package tests

import (
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// LEDTest 依次闪烁各LED并请操作员目视确认
func LEDTest(cfg config.LEDConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		var present []string
		for _, name := range cfg.Pins {
			if board.Has(name) {
				present = append(present, name)
			}
		}
		if len(present) == 0 {
			return boardtest.Skipped("no LED pins on this board")
		}

		blinks := cfg.Blinks
		if blinks <= 0 {
			blinks = 3
		}

		tested := []string{}
		for _, name := range present {
			pin, err := board.ClaimDigital(name)
			if err != nil {
				return boardtest.Failed("claim "+name+": "+err.Error(), tested...)
			}

			p.Say("Blinking %s...", name)
			for i := 0; i < blinks; i++ {
				if err := pin.Set(true); err != nil {
					pin.Release()
					return boardtest.Failed("drive "+name+": "+err.Error(), tested...)
				}
				time.Sleep(200 * time.Millisecond)
				_ = pin.Set(false)
				time.Sleep(200 * time.Millisecond)
			}
			pin.Release()
			tested = append(tested, name)
		}

		ok, err := p.Confirm("Did all LEDs blink?")
		if err != nil {
			return boardtest.Failed("operator input: "+err.Error(), tested...)
		}
		if !ok {
			return boardtest.Failed("operator reported LED failure", tested...)
		}
		return boardtest.Pass(tested...)
	}
}
