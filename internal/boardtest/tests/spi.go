package tests

import (
	"bytes"
	"fmt"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// SPITest MOSI外接MISO的SPI回环：全双工传输一组
// 已知图样并比对收发。
func SPITest(cfg config.SPIConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		for _, name := range []string{cfg.MOSIPin, cfg.MISOPin, cfg.SCKPin, cfg.CSPin} {
			if !board.Has(name) {
				return boardtest.Skipped(name + " not on this board")
			}
		}

		tested := []string{cfg.MOSIPin, cfg.MISOPin, cfg.SCKPin, cfg.CSPin}

		bus, err := board.OpenSPI(cfg.MOSIPin, cfg.MISOPin, cfg.SCKPin, cfg.CSPin)
		if err != nil {
			return boardtest.Failed("spi open error: "+err.Error(), tested...)
		}
		defer bus.Release()

		patterns := [][]byte{
			{0x55, 0xAA, 0x55, 0xAA},
			{0x00, 0xFF, 0x0F, 0xF0},
			{0xDE, 0xAD, 0xBE, 0xEF},
		}

		for _, out := range patterns {
			got, err := bus.Transfer(out)
			if err != nil {
				return boardtest.Failed("transfer error: "+err.Error(), tested...)
			}
			if !bytes.Equal(got, out) {
				return boardtest.Failed(fmt.Sprintf("loopback mismatch: sent %X got %X", out, got), tested...)
			}
		}
		return boardtest.Pass(tested...)
	}
}
