package tests

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/boardtest/bleuart"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// UARTTest TX外接RX的串口回环：发一条探测串，
// 用有界读取器收回并比对。
func UARTTest(cfg config.UARTConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		if !board.Has(cfg.TXPin) || !board.Has(cfg.RXPin) {
			return boardtest.Skipped(fmt.Sprintf("%s/%s not on this board", cfg.TXPin, cfg.RXPin))
		}

		tested := []string{cfg.TXPin, cfg.RXPin}

		baud := cfg.BaudRate
		if baud <= 0 {
			baud = 9600
		}

		link, err := board.OpenSerial(cfg.TXPin, cfg.RXPin, baud)
		if err != nil {
			return boardtest.Failed("serial open error: "+err.Error(), tested...)
		}
		defer func() { _ = link.Release() }()

		bleuart.FlushRx(link, 100*time.Millisecond)

		probe := []byte("UART LOOPBACK TEST\r\n")
		if _, err := link.Write(probe); err != nil {
			return boardtest.Failed("write error: "+err.Error(), tested...)
		}

		got, err := bleuart.ReadMessage(link, 2*time.Second, 250*time.Millisecond)
		if err != nil {
			return boardtest.Failed("no loopback data received", tested...)
		}
		if !bytes.Equal(got, bytes.TrimSpace(probe)) {
			return boardtest.Failed(fmt.Sprintf("loopback mismatch: %q", got), tested...)
		}
		return boardtest.Pass(tested...)
	}
}
