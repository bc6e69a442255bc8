package tests

import (
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// NeoPixelTest 像素灯带依次整体刷红绿蓝，再跑一段
// 彩虹轮，请操作员目视确认。
func NeoPixelTest(cfg config.NeoPixelConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		if !board.Has(cfg.Pin) {
			return boardtest.Skipped(cfg.Pin + " not on this board")
		}

		count := cfg.Count
		if count <= 0 {
			count = 8
		}

		strip, err := board.ClaimPixels(cfg.Pin, count)
		if err != nil {
			return boardtest.Skipped("pixel strip unavailable: " + err.Error())
		}
		defer strip.Release()

		fill := func(r, g, b uint8) error {
			for i := 0; i < strip.Count(); i++ {
				if err := strip.SetPixel(i, r, g, b, 0); err != nil {
					return err
				}
			}
			return strip.Show()
		}

		p.Say("Cycling NeoPixels red/green/blue then rainbow...")
		for _, c := range [][3]uint8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}} {
			if err := fill(c[0], c[1], c[2]); err != nil {
				return boardtest.Failed("pixel write error: "+err.Error(), cfg.Pin)
			}
			time.Sleep(400 * time.Millisecond)
		}

		// 彩虹轮
		for offset := 0; offset < 256; offset += 8 {
			for i := 0; i < strip.Count(); i++ {
				r, g, b := wheel(uint8((i*256/strip.Count() + offset) & 0xFF))
				if err := strip.SetPixel(i, r, g, b, 0); err != nil {
					return boardtest.Failed("pixel write error: "+err.Error(), cfg.Pin)
				}
			}
			if err := strip.Show(); err != nil {
				return boardtest.Failed("pixel show error: "+err.Error(), cfg.Pin)
			}
			time.Sleep(20 * time.Millisecond)
		}
		_ = fill(0, 0, 0)

		ok, err := p.Confirm("Did the pixels cycle colors?")
		if err != nil {
			return boardtest.Failed("operator input: "+err.Error(), cfg.Pin)
		}
		if !ok {
			return boardtest.Failed("operator reported pixel failure", cfg.Pin)
		}
		return boardtest.Pass(cfg.Pin)
	}
}

// wheel 0..255位置映射到彩虹色
func wheel(pos uint8) (uint8, uint8, uint8) {
	switch {
	case pos < 85:
		return 255 - pos*3, pos * 3, 0
	case pos < 170:
		pos -= 85
		return 0, 255 - pos*3, pos * 3
	default:
		pos -= 170
		return pos * 3, 0, 255 - pos*3
	}
}
