package tests

import (
	"fmt"
	"math"
	"time"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// DAC扫描与判定门限
const (
	dacSweepStep = 4096
	dacDwell     = 2 * time.Millisecond
	minPearsonR  = 0.98
	minSlope     = 0.20
)

// DACADCTest DAC输出外接ADC输入，全量程上扫采样，
// 用相关系数和斜率验证输入是否跟随输出。
func DACADCTest(cfg config.DACADCConfig) boardtest.TestFunc {
	return func(board hal.Board, p *boardtest.Prompter) boardtest.Result {
		if !board.Has(cfg.DACPin) || !board.Has(cfg.ADCPin) {
			return boardtest.Skipped(fmt.Sprintf("%s/%s not on this board", cfg.DACPin, cfg.ADCPin))
		}

		tested := []string{cfg.DACPin, cfg.ADCPin}

		out, err := board.ClaimAnalogOut(cfg.DACPin)
		if err != nil {
			return boardtest.Skipped("analog output unavailable: " + err.Error())
		}
		defer out.Release()

		in, err := board.ClaimAnalogIn(cfg.ADCPin)
		if err != nil {
			return boardtest.Skipped("analog input unavailable: " + err.Error())
		}
		defer in.Release()

		_ = out.SetValue(0)
		time.Sleep(10 * time.Millisecond)

		// 上扫设定点，末尾补满刻度
		var setpoints []float64
		for v := 0; v < 65536; v += dacSweepStep {
			setpoints = append(setpoints, float64(v))
		}
		if setpoints[len(setpoints)-1] != 65535 {
			setpoints = append(setpoints, 65535)
		}

		readings := make([]float64, 0, len(setpoints))
		for _, v := range setpoints {
			if err := out.SetValue(uint16(v)); err != nil {
				return boardtest.Failed("set value error: "+err.Error(), tested...)
			}
			time.Sleep(dacDwell)
			got, err := in.Value()
			if err != nil {
				return boardtest.Failed("read value error: "+err.Error(), tested...)
			}
			readings = append(readings, float64(got))
		}

		r := pearsonR(setpoints, readings)
		m := slope(setpoints, readings)

		res := boardtest.Result{
			Pins: tested,
			Info: map[string]interface{}{"r": r, "slope": m},
		}
		if r >= minPearsonR && m >= minSlope {
			res.Status = boardtest.StatusPass
		} else {
			res.Status = boardtest.FailedStatus(
				fmt.Sprintf("%s does not track %s (r=%.3f slope=%.3f)", cfg.ADCPin, cfg.DACPin, r, m))
		}
		return res
	}
}

// pearsonR 皮尔逊相关系数
func pearsonR(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 0
	}
	var sx, sy, sxx, syy, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		syy += ys[i] * ys[i]
		sxy += xs[i] * ys[i]
	}
	num := n*sxy - sx*sy
	den := math.Sqrt(math.Max(1e-12, (n*sxx-sx*sx)*(n*syy-sy*sy)))
	return num / den
}

// slope 最小二乘斜率
func slope(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}
