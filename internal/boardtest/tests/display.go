package tests

import (
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// DisplayTest 两段目视检查：先让测试精灵在屏上移动，
// 再显示四行文本，各自请操作员确认。
func DisplayTest(cfg config.DisplayConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		disp, err := board.OpenDisplay()
		if err != nil {
			return boardtest.Skipped("display unavailable: " + err.Error())
		}
		defer disp.Release()

		w, h := disp.Size()

		// 精灵沿对角线走几步
		p.Say("Moving a sprite across the display...")
		steps := 8
		for i := 0; i < steps; i++ {
			x := i * (w - 16) / (steps - 1)
			y := i * (h - 16) / (steps - 1)
			if err := disp.ShowSprite(x, y); err != nil {
				return boardtest.Failed("sprite draw error: " + err.Error())
			}
			time.Sleep(150 * time.Millisecond)
		}

		ok, err := p.Confirm("Did the sprite move across the screen?")
		if err != nil {
			return boardtest.Failed("operator input: " + err.Error())
		}
		if !ok {
			return boardtest.Failed("operator reported sprite failure")
		}

		lines := []string{
			"Line 1: board test",
			"Line 2: display ok?",
			"Line 3: text render",
			"Line 4: confirm below",
		}
		if err := disp.ShowTextLines(lines); err != nil {
			return boardtest.Failed("text draw error: " + err.Error())
		}

		ok, err = p.Confirm("Are all 4 text lines readable?")
		if err != nil {
			return boardtest.Failed("operator input: " + err.Error())
		}
		if !ok {
			return boardtest.Failed("operator reported text failure")
		}
		return boardtest.Pass()
	}
}
