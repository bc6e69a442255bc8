package bleuart

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/hal"
	"github.com/wfunc/boardtest/internal/logger"
)

// 逻辑引脚名
const (
	PinTX    = "BLE_TX"  // 主控 -> 模块
	PinRX    = "BLE_RX"  // 模块 -> 主控
	PinReset = "BLE_CLR" // 可选复位线
)

// 各阶段默认超时
const (
	defaultConnectTimeout = 60 * time.Second
	defaultUserTimeout    = 120 * time.Second
)

const (
	userIdleGap      = 250 * time.Millisecond
	openFlushWait    = 100 * time.Millisecond
	finishFlushWait  = 50 * time.Millisecond
	quietFlushWait   = 80 * time.Millisecond
	defaultQuietHold = 150 * time.Millisecond
)

// Options BLE回显测试参数
type Options struct {
	BaudRate         int
	ConnectTimeout   time.Duration
	UserTimeout      time.Duration
	LegacyTimeout    time.Duration // 旧版单一超时，仅覆盖仍为默认值的阶段
	DoReset          bool
	ResetActiveLow   bool
	ActiveStateQuery bool
	StateQueryPeriod time.Duration
	QuietShutdown    bool
	QuietHold        time.Duration
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		BaudRate:         9600,
		ConnectTimeout:   defaultConnectTimeout,
		UserTimeout:      defaultUserTimeout,
		DoReset:          true,
		ResetActiveLow:   true,
		ActiveStateQuery: false,
		StateQueryPeriod: time.Second,
		QuietShutdown:    true,
		QuietHold:        defaultQuietHold,
	}
}

// RunTest 执行BLE-UART回显测试。
//
// 流程：可选复位脉冲 -> 打开串行链路 -> 排空陈旧字节 ->
// 等待连接 -> 读取一条用户文本 -> 原样回显 -> 静默关断。
// 任一阶段失败都走同一条关断路径；关断顺序固定为
// 拉住复位 -> 排空 -> 关闭链路 -> 释放复位，先压住还在
// 发送的对端再拆驱动。
func RunTest(board hal.Board, opts Options) (res boardtest.Result) {
	log := logger.WithModule("bleuart")

	tested := []string{}
	info := map[string]interface{}{
		"received":      "",
		"connect_seen":  false,
		"connect_token": "",
	}
	res = boardtest.Result{Status: boardtest.StatusPass, Pins: tested, Info: info}

	// 旧版单一超时只覆盖仍持默认值的阶段，显式给定的阶段超时优先
	if opts.LegacyTimeout > 0 {
		if opts.ConnectTimeout == defaultConnectTimeout {
			opts.ConnectTimeout = opts.LegacyTimeout
		}
		if opts.UserTimeout == defaultUserTimeout {
			opts.UserTimeout = opts.LegacyTimeout
		}
	}

	// 数据引脚缺失直接跳过，不打开任何资源
	if !board.Has(PinTX) || !board.Has(PinRX) {
		res = boardtest.Result{
			Status: boardtest.SkippedStatus("BLE_TX/BLE_RX not present on this board"),
			Pins:   tested,
			Info:   info,
		}
		return res
	}

	tested = append(tested, PinTX, PinRX)
	hasReset := board.Has(PinReset)
	if hasReset {
		tested = append(tested, PinReset)
	}
	res.Pins = tested

	var link hal.SerialLink
	var held *ResetHold

	defer func() {
		if r := recover(); r != nil {
			log.Error("回显测试异常恢复", zap.Any("panic", r))
			res = boardtest.Result{Status: boardtest.FailStatus(r), Pins: tested, Info: info}
		}

		// 静默关断：先拉住复位压制仍在发送的模块
		if opts.QuietShutdown && hasReset {
			held = HoldReset(board, PinReset, opts.ResetActiveLow)
			if held != nil {
				time.Sleep(opts.QuietHold)
			}
		}

		if link != nil {
			FlushRx(link, quietFlushWait)
			if err := link.Release(); err != nil {
				log.Warn("串行链路释放失败", zap.Error(err))
			}
			link = nil
		}

		// 链路完全释放后才把复位线放回空闲
		held.Release()
	}()

	// 可选上电复位脉冲
	if opts.DoReset && hasReset {
		PulseReset(board, PinReset, opts.ResetActiveLow, resetAssertFor, resetSettleTime)
	}

	var err error
	link, err = board.OpenSerial(PinTX, PinRX, opts.BaudRate)
	if err != nil {
		res = boardtest.Result{
			Status: boardtest.FailedStatus("serial open error: " + err.Error()),
			Pins:   tested,
			Info:   info,
		}
		return res
	}
	FlushRx(link, openFlushWait)

	// 就绪横幅，尽力而为
	_, _ = link.Write([]byte("READY: waiting for BLE connection...\r\n"))

	// 阶段1：等待连接（指示或任意RX活动）
	connected, token := WaitForConnection(link, opts.ConnectTimeout, opts.ActiveStateQuery, opts.StateQueryPeriod)
	if !connected {
		res = boardtest.Result{
			Status: boardtest.FailedStatus("no BLE connection detected within timeout"),
			Pins:   tested,
			Info:   info,
		}
		return res
	}

	info["connect_seen"] = true
	info["connect_token"] = token
	log.Info("检测到连接", zap.String("token", token))

	_, _ = link.Write([]byte("OK CONNECTED\r\nSend text to echo:\r\n"))

	// 阶段2：读取一条用户文本并回显
	userMsg, err := ReadMessage(link, opts.UserTimeout, userIdleGap)
	if err != nil || len(userMsg) == 0 {
		res = boardtest.Result{
			Status: boardtest.FailedStatus("no user text received after connection"),
			Pins:   tested,
			Info:   info,
		}
		return res
	}

	// 无效字节替换而非报错；摘要截断保存
	userText := strings.ToValidUTF8(string(userMsg), "�")
	info["received"] = truncateRunes(userText, maxStoreRunes)
	logger.LogSerialTraffic("rx", userMsg)

	if _, err := link.Write(append(append([]byte{}, userMsg...), '\r', '\n')); err != nil {
		res = boardtest.Result{
			Status: boardtest.FailedStatus("write error: " + err.Error()),
			Pins:   tested,
			Info:   info,
		}
		return res
	}

	FlushRx(link, finishFlushWait)
	res = boardtest.Result{Status: boardtest.StatusPass, Pins: tested, Info: info}
	return res
}

// truncateRunes 超过max个字符时截断并追加省略号
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
