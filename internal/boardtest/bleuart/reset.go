package bleuart

import (
	"time"

	"github.com/wfunc/boardtest/internal/hal"
	"github.com/wfunc/boardtest/internal/logger"
)

// 复位脉冲时序
const (
	resetPreIdle    = 10 * time.Millisecond
	resetAssertFor  = 50 * time.Millisecond
	resetSettleTime = 300 * time.Millisecond
)

// PulseReset 对复位线打一个上电复位脉冲：先回到空闲电平，
// 短暂等待后拉到有效电平assertFor时长，再回空闲并等待settle。
// 复位线只是提示性资源，任何底层失败都不向调用方传播。
func PulseReset(board hal.Board, pinName string, activeLow bool, assertFor, settle time.Duration) {
	pin, err := board.ClaimDigital(pinName)
	if err != nil {
		logger.WithModule("bleuart").Debug("复位引脚申请失败，跳过脉冲")
		return
	}
	defer pin.Release()

	idle := activeLow
	active := !activeLow

	if err := pin.Set(idle); err != nil {
		return
	}
	time.Sleep(resetPreIdle)

	if err := pin.Set(active); err != nil {
		return
	}
	time.Sleep(assertFor)

	// 回到空闲并等待模块稳定
	_ = pin.Set(idle)
	time.Sleep(settle)
}

// ResetHold 被持续拉住的复位线。零值/nil安全：
// Release对空持有是无操作。
type ResetHold struct {
	pin       hal.DigitalPin
	activeLow bool
}

// HoldReset 拉住复位线并保持有效电平（静默关断用）。
// 申请失败返回nil（空持有）。
func HoldReset(board hal.Board, pinName string, activeLow bool) *ResetHold {
	pin, err := board.ClaimDigital(pinName)
	if err != nil {
		return nil
	}

	active := !activeLow
	if err := pin.Set(active); err != nil {
		pin.Release()
		return nil
	}

	return &ResetHold{pin: pin, activeLow: activeLow}
}

// Release 把复位线放回空闲电平并释放引脚。对nil持有无操作。
func (h *ResetHold) Release() {
	if h == nil || h.pin == nil {
		return
	}
	_ = h.pin.Set(h.activeLow)
	h.pin.Release()
	h.pin = nil
}
