package tests

import (
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// CapTouchTest 电容触摸两段式：先等操作员按下，再等松开，
// 各有独立超时。配了指示LED时实时镜像触摸状态。
func CapTouchTest(cfg config.CapTouchConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		if !board.Has(cfg.Pin) {
			return boardtest.Skipped(cfg.Pin + " not on this board")
		}

		pad, err := board.ClaimTouch(cfg.Pin)
		if err != nil {
			return boardtest.Skipped("touch pad unavailable: " + err.Error())
		}
		defer pad.Release()

		tested := []string{cfg.Pin}

		var led hal.DigitalPin
		if cfg.LEDPin != "" && board.Has(cfg.LEDPin) {
			if l, err := board.ClaimDigital(cfg.LEDPin); err == nil {
				led = l
				defer led.Release()
				tested = append(tested, cfg.LEDPin)
			}
		}

		touchTimeout := cfg.TouchTimeout
		if touchTimeout <= 0 {
			touchTimeout = 30 * time.Second
		}
		releaseTimeout := cfg.ReleaseTimeout
		if releaseTimeout <= 0 {
			releaseTimeout = 30 * time.Second
		}

		p.Say("Touch pad %s now...", cfg.Pin)
		if !waitTouchState(pad, led, true, touchTimeout) {
			return boardtest.Failed("no touch detected within timeout", tested...)
		}

		p.Say("Touch detected, now release...")
		if !waitTouchState(pad, led, false, releaseTimeout) {
			return boardtest.Failed("pad never released within timeout", tested...)
		}

		return boardtest.Pass(tested...)
	}
}

// waitTouchState 轮询触摸状态直到到达目标或超时，
// LED跟随当前状态。
func waitTouchState(pad hal.TouchPad, led hal.DigitalPin, want bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		got, err := pad.Touched()
		if err != nil {
			return false
		}
		if led != nil {
			_ = led.Set(got)
		}
		if got == want {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
