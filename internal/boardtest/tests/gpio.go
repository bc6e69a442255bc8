package tests

import (
	"fmt"
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// GPIOTest 对一对外部短接的引脚做双向电平回环：
// 一侧驱动高低电平，另一侧读回校验，然后交换方向。
func GPIOTest(cfg config.GPIOConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		if !board.Has(cfg.PinA) || !board.Has(cfg.PinB) {
			return boardtest.Skipped(fmt.Sprintf("%s/%s not on this board", cfg.PinA, cfg.PinB))
		}

		tested := []string{cfg.PinA, cfg.PinB}

		if err := checkPairBothWays(board, cfg.PinA, cfg.PinB); err != nil {
			return boardtest.Failed(err.Error(), tested...)
		}
		return boardtest.Pass(tested...)
	}
}

// checkPairBothWays 先A驱动B读，再B驱动A读
func checkPairBothWays(board hal.Board, a, b string) error {
	if err := checkPair(board, a, b); err != nil {
		return err
	}
	return checkPair(board, b, a)
}

func checkPair(board hal.Board, drive, sense string) error {
	out, err := board.ClaimDigital(drive)
	if err != nil {
		return fmt.Errorf("claim %s: %w", drive, err)
	}
	defer out.Release()

	in, err := board.ClaimDigital(sense)
	if err != nil {
		return fmt.Errorf("claim %s: %w", sense, err)
	}
	defer in.Release()

	if err := in.SwitchToInput(hal.PullUp); err != nil {
		return fmt.Errorf("input %s: %w", sense, err)
	}

	for _, level := range []bool{false, true, false} {
		if err := out.Set(level); err != nil {
			return fmt.Errorf("drive %s: %w", drive, err)
		}
		time.Sleep(5 * time.Millisecond)
		got, err := in.Get()
		if err != nil {
			return fmt.Errorf("read %s: %w", sense, err)
		}
		if got != level {
			return fmt.Errorf("%s->%s level mismatch: drove %v read %v", drive, sense, level, got)
		}
	}
	return nil
}
