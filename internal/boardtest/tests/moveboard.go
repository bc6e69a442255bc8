package tests

import (
	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// MoveBoardTest 提示操作员拿起并晃动板子，检查接插件和
// 焊点在机械应力下是否稳定，之后确认系统仍正常。
func MoveBoardTest(cfg config.MoveBoardConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		if err := p.WaitEnter("Pick up the board, flex/shake it gently, then put it back"); err != nil {
			return boardtest.Failed("operator input: " + err.Error())
		}

		ok, err := p.Confirm("Is the board still running normally?")
		if err != nil {
			return boardtest.Failed("operator input: " + err.Error())
		}
		if !ok {
			return boardtest.Failed("board failed under mechanical stress")
		}
		return boardtest.Pass()
	}
}
