package hal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/boardtest/internal/errors"
)

// 测试数字引脚独占申请
func TestMockBoard_ClaimDigital(t *testing.T) {
	board := NewMockBoard("mock", "D0", "D1")

	t.Run("正常申请", func(t *testing.T) {
		pin, err := board.ClaimDigital("D0")
		require.NoError(t, err)
		defer pin.Release()

		assert.NoError(t, pin.Set(true))
		v, ok := board.PinLevel("D0")
		assert.True(t, ok)
		assert.True(t, v)
	})

	t.Run("引脚不存在", func(t *testing.T) {
		_, err := board.ClaimDigital("D99")
		assert.True(t, errors.Is(err, errors.ErrPinNotPresent))
	})

	t.Run("重复申请被拒", func(t *testing.T) {
		pin, err := board.ClaimDigital("D1")
		require.NoError(t, err)

		_, err = board.ClaimDigital("D1")
		assert.True(t, errors.Is(err, errors.ErrPinBusy))

		// 释放后可再次申请
		pin.Release()
		pin2, err := board.ClaimDigital("D1")
		require.NoError(t, err)
		pin2.Release()
	})
}

// 测试引脚连线与上拉读取
func TestMockBoard_WireAndPull(t *testing.T) {
	board := NewMockBoard("mock", "A0", "A1")
	board.Wire("A0", "A1")

	out, err := board.ClaimDigital("A0")
	require.NoError(t, err)
	defer out.Release()
	in, err := board.ClaimDigital("A1")
	require.NoError(t, err)
	defer in.Release()

	require.NoError(t, in.SwitchToInput(PullUp))

	// 无驱动时上拉读高
	v, err := in.Get()
	require.NoError(t, err)
	assert.True(t, v)

	// 对端拉低
	require.NoError(t, out.Set(false))
	v, err = in.Get()
	require.NoError(t, err)
	assert.False(t, v)

	require.NoError(t, out.Set(true))
	v, err = in.Get()
	require.NoError(t, err)
	assert.True(t, v)
}

// 测试脚本化串行链路
func TestMockLink(t *testing.T) {
	t.Run("注入与读取", func(t *testing.T) {
		link := NewMockLink()
		link.FeedRX([]byte("hello"))

		assert.Equal(t, 5, link.BytesAvailable())

		got, err := link.Read(3)
		require.NoError(t, err)
		assert.Equal(t, []byte("hel"), got)
		assert.Equal(t, 2, link.BytesAvailable())

		// 空缓冲立即返回
		link2 := NewMockLink()
		got, err = link2.Read(32)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("回环链路", func(t *testing.T) {
		link := NewLoopbackLink()
		n, err := link.Write([]byte("abc"))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, 3, link.BytesAvailable())
		assert.Equal(t, []byte("abc"), link.Written())
	})

	t.Run("延迟注入", func(t *testing.T) {
		link := NewMockLink()
		link.FeedRXAfter(20*time.Millisecond, []byte("x"))
		assert.Equal(t, 0, link.BytesAvailable())

		deadline := time.Now().Add(500 * time.Millisecond)
		for link.BytesAvailable() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		assert.Equal(t, 1, link.BytesAvailable())
	})

	t.Run("写入错误注入", func(t *testing.T) {
		link := NewMockLink()
		link.SetWriteError(errors.New(errors.ErrSerialPortWrite, "注入故障"))
		_, err := link.Write([]byte("x"))
		assert.True(t, errors.Is(err, errors.ErrSerialPortWrite))
	})
}

// 测试CAN回环
func TestMockCAN(t *testing.T) {
	board := NewMockBoard("mock", "CAN_TX", "CAN_RX")
	bus, err := board.OpenCAN("CAN_TX", "CAN_RX", 250000, true)
	require.NoError(t, err)
	defer bus.Release()

	frame := CANFrame{ID: 0x408, Data: []byte{1, 2, 3, 4}}
	require.NoError(t, bus.Send(frame))

	got, err := bus.Receive(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, frame.ID, got.ID)
	assert.Equal(t, frame.Data, got.Data)

	// 空总线超时
	_, err = bus.Receive(30 * time.Millisecond)
	assert.True(t, errors.Is(err, errors.ErrSerialTimeout))
}

// 测试DAC->ADC跟随网络
func TestMockAnalogNet(t *testing.T) {
	board := NewMockBoard("mock", "DAC0", "ADC0")
	out, err := board.ClaimAnalogOut("DAC0")
	require.NoError(t, err)
	defer out.Release()
	in, err := board.ClaimAnalogIn("ADC0")
	require.NoError(t, err)
	defer in.Release()

	require.NoError(t, out.SetValue(40000))
	v, err := in.Value()
	require.NoError(t, err)
	assert.InDelta(t, 38000, int(v), 100)
}
