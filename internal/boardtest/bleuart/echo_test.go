package bleuart

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/errors"
	"github.com/wfunc/boardtest/internal/hal"
)

// fastOptions 缩短各超时，让失败路径测试跑得快
func fastOptions() Options {
	opts := DefaultOptions()
	opts.DoReset = false
	opts.ConnectTimeout = 300 * time.Millisecond
	opts.UserTimeout = 300 * time.Millisecond
	opts.QuietHold = 10 * time.Millisecond
	return opts
}

// 测试端到端通过场景
func TestRunTest_EndToEnd(t *testing.T) {
	board := hal.NewMockBoard("mock", PinTX, PinRX)
	link := hal.NewMockLink()
	board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
		return link, nil
	})

	// 连接阶段收到指示，稍后收到带换行的用户文本
	link.FeedRXAfter(30*time.Millisecond, []byte("OK+CONN"))
	link.FeedRXAfter(300*time.Millisecond, []byte("hello world\n"))

	opts := DefaultOptions()
	opts.DoReset = false
	opts.ConnectTimeout = 5 * time.Second
	opts.UserTimeout = 5 * time.Second

	res := RunTest(board, opts)

	assert.Equal(t, boardtest.StatusPass, res.Status)
	assert.Equal(t, []string{PinTX, PinRX}, res.Pins)
	assert.Equal(t, "hello world", res.Info["received"])
	assert.Equal(t, true, res.Info["connect_seen"])
	assert.Equal(t, "OK+CONN", res.Info["connect_token"])

	// 回显的字节原样写回并带行结束符
	assert.True(t, strings.HasSuffix(string(link.Written()), "hello world\r\n"))
	assert.True(t, link.Released())
}

// 测试数据引脚缺失时跳过且不打开任何资源
func TestRunTest_SkipWhenPinsAbsent(t *testing.T) {
	board := hal.NewMockBoard("mock", PinTX) // 缺BLE_RX
	opened := 0
	board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
		opened++
		return hal.NewMockLink(), nil
	})

	res := RunTest(board, fastOptions())

	assert.True(t, strings.HasPrefix(res.Status, "SKIPPED"))
	assert.Empty(t, res.Pins)
	assert.Equal(t, 0, opened)
}

// 测试连接超时失败
func TestRunTest_ConnectTimeout(t *testing.T) {
	board := hal.NewMockBoard("mock", PinTX, PinRX)
	link := hal.NewMockLink()
	board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
		return link, nil
	})

	res := RunTest(board, fastOptions())

	assert.Equal(t, boardtest.FailedStatus("no BLE connection detected within timeout"), res.Status)
	assert.Equal(t, false, res.Info["connect_seen"])
	assert.True(t, link.Released())
}

// 测试连接后无用户文本失败
func TestRunTest_NoUserText(t *testing.T) {
	board := hal.NewMockBoard("mock", PinTX, PinRX)
	link := hal.NewMockLink()
	board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
		return link, nil
	})
	link.FeedRXAfter(30*time.Millisecond, []byte("CONNECTED"))

	res := RunTest(board, fastOptions())

	assert.Equal(t, boardtest.FailedStatus("no user text received after connection"), res.Status)
	assert.Equal(t, true, res.Info["connect_seen"])
	assert.True(t, link.Released())
}

// 测试回显写入失败
func TestRunTest_WriteError(t *testing.T) {
	board := hal.NewMockBoard("mock", PinTX, PinRX)
	link := hal.NewMockLink()
	board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
		return link, nil
	})
	link.FeedRXAfter(30*time.Millisecond, []byte("OK+CONN"))
	link.FeedRXAfter(200*time.Millisecond, []byte("text\n"))
	// 横幅写入也会失败，但属于尽力而为不影响流程
	link.SetWriteError(errors.New(errors.ErrSerialPortWrite, "断线"))

	opts := fastOptions()
	opts.ConnectTimeout = 2 * time.Second
	opts.UserTimeout = 2 * time.Second
	res := RunTest(board, opts)

	assert.True(t, strings.HasPrefix(res.Status, "FAILED (write error:"), res.Status)
	assert.True(t, link.Released())
}

// 测试异常恢复路径：链路故障panic被捕获并转为结果
func TestRunTest_PanicRecovered(t *testing.T) {
	board := hal.NewMockBoard("mock", PinTX, PinRX, PinReset)
	link := hal.NewMockLink()
	board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
		return link, nil
	})
	link.SetPanicOnRead(true)

	res := RunTest(board, fastOptions())

	assert.True(t, strings.HasPrefix(res.Status, "FAIL ("), res.Status)
	assert.True(t, link.Released())
	// 复位线关断后不再被占用
	assert.False(t, board.IsClaimed(PinReset))
}

// 测试各失败注入下关断总是执行且资源不泄漏
func TestRunTest_TeardownAlwaysRuns(t *testing.T) {
	cases := []struct {
		name  string
		setup func(link *hal.MockLink)
	}{
		{"连接超时", func(link *hal.MockLink) {}},
		{"无用户文本", func(link *hal.MockLink) {
			link.FeedRXAfter(20*time.Millisecond, []byte("zz"))
		}},
		{"读取panic", func(link *hal.MockLink) {
			link.SetPanicOnRead(true)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			board := hal.NewMockBoard("mock", PinTX, PinRX, PinReset)
			link := hal.NewMockLink()
			board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
				return link, nil
			})
			tc.setup(link)

			res := RunTest(board, fastOptions())

			assert.NotEqual(t, boardtest.StatusPass, res.Status)
			assert.True(t, link.Released())
			assert.False(t, board.IsClaimed(PinReset))
			assert.False(t, board.IsClaimed(PinTX))
		})
	}
}

// 测试旧版单一超时仅覆盖仍为默认值的阶段
func TestRunTest_LegacyTimeout(t *testing.T) {
	t.Run("覆盖两个默认阶段", func(t *testing.T) {
		board := hal.NewMockBoard("mock", PinTX, PinRX)
		link := hal.NewMockLink()
		board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
			return link, nil
		})

		opts := DefaultOptions()
		opts.DoReset = false
		opts.LegacyTimeout = 200 * time.Millisecond

		start := time.Now()
		res := RunTest(board, opts)
		// 连接阶段用的是旧版超时而不是默认60秒
		assert.Less(t, time.Since(start), 3*time.Second)
		assert.True(t, strings.HasPrefix(res.Status, "FAILED"))
	})

	t.Run("显式阶段超时优先", func(t *testing.T) {
		board := hal.NewMockBoard("mock", PinTX, PinRX)
		link := hal.NewMockLink()
		board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
			return link, nil
		})

		opts := DefaultOptions()
		opts.DoReset = false
		opts.ConnectTimeout = 100 * time.Millisecond // 显式给定
		opts.LegacyTimeout = 10 * time.Second

		start := time.Now()
		RunTest(board, opts)
		// 旧版值不得覆盖显式的连接超时
		assert.Less(t, time.Since(start), 3*time.Second)
	})
}

// 测试超长用户文本的摘要截断
func TestRunTest_ReceivedTruncation(t *testing.T) {
	board := hal.NewMockBoard("mock", PinTX, PinRX)
	link := hal.NewMockLink()
	board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
		return link, nil
	})

	long := strings.Repeat("a", 100)
	link.FeedRXAfter(30*time.Millisecond, []byte("OK+CONN"))
	link.FeedRXAfter(250*time.Millisecond, []byte(long+"\n"))

	opts := fastOptions()
	opts.ConnectTimeout = 2 * time.Second
	opts.UserTimeout = 2 * time.Second
	res := RunTest(board, opts)

	require.Equal(t, boardtest.StatusPass, res.Status)
	got := res.Info["received"].(string)
	assert.Equal(t, strings.Repeat("a", 64)+"…", got)
}
