package tests

import (
	"fmt"
	"strings"
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// 默认引脚对（按治具接线调整）
var defaultPairs = [][2]string{
	{"D11", "D10"},
	{"D9", "D8"},
	{"D0", "D1"},
	{"D2", "D3"},
	{"D4", "D5"},
	{"D6", "D7"},
}

// 不允许被推挽测试碰触的引脚
var reservedPins = map[string]bool{
	"SDA": true, "SCL": true,
	"NEOPIXEL": true, "LED": true,
	"CAN_TX": true, "CAN_RX": true,
	"SD_MOSI": true, "SD_MISO": true, "SD_SCK": true, "SD_CS": true,
	"QSPI_CS": true, "QSPI_SCK": true,
	"QSPI_IO0": true, "QSPI_IO1": true, "QSPI_IO2": true, "QSPI_IO3": true,
}

// PinGroupTest 批量引脚对连通性测试，开漏安全：
// 从不驱动高电平，"高"相位靠释放引脚由上拉回高，
// 只主动拉低。每对双向各测一轮。
func PinGroupTest(cfg config.PinGroupConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		reserved := make(map[string]bool, len(reservedPins))
		for k := range reservedPins {
			reserved[k] = true
		}
		for _, name := range cfg.Reserved {
			reserved[name] = true
		}

		pairs := defaultPairs
		if len(cfg.Pairs) > 0 {
			pairs = nil
			for _, pr := range cfg.Pairs {
				if len(pr) == 2 {
					pairs = append(pairs, [2]string{pr[0], pr[1]})
				}
			}
		}

		tested := []string{}
		var failures []string

		for _, pair := range pairs {
			a, b := pair[0], pair[1]
			if reserved[a] || reserved[b] {
				continue
			}
			if !board.Has(a) || !board.Has(b) {
				continue
			}

			if err := checkPairOpenDrain(board, a, b); err != nil {
				failures = append(failures, err.Error())
			} else if err := checkPairOpenDrain(board, b, a); err != nil {
				failures = append(failures, err.Error())
			}
			tested = append(tested, a, b)
		}

		if len(tested) == 0 {
			return boardtest.Skipped("no testable pin pairs on this board")
		}
		if len(failures) > 0 {
			return boardtest.Failed(strings.Join(failures, "; "), tested...)
		}
		return boardtest.Pass(tested...)
	}
}

// checkPairOpenDrain 驱动侧只拉低或悬空，读取侧带上拉
func checkPairOpenDrain(board hal.Board, drive, sense string) error {
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

	// 悬空相位：上拉应读高
	if err := out.SwitchToInput(hal.PullNone); err != nil {
		return fmt.Errorf("float %s: %w", drive, err)
	}
	time.Sleep(5 * time.Millisecond)
	got, err := in.Get()
	if err != nil {
		return fmt.Errorf("read %s: %w", sense, err)
	}
	if !got {
		return fmt.Errorf("%s->%s stuck low while floating", drive, sense)
	}

	// 拉低相位
	if err := out.Set(false); err != nil {
		return fmt.Errorf("drive %s low: %w", drive, err)
	}
	time.Sleep(5 * time.Millisecond)
	got, err = in.Get()
	if err != nil {
		return fmt.Errorf("read %s: %w", sense, err)
	}
	if got {
		return fmt.Errorf("%s->%s not following low", drive, sense)
	}

	return nil
}
