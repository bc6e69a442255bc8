package tests

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/hal"
)

// 非交互交互器，所有确认自动通过
func autoPrompter() *boardtest.Prompter {
	return boardtest.NewPrompterIO(strings.NewReader(""), &strings.Builder{}, false)
}

// 测试GPIO对回环
func TestGPIOTest(t *testing.T) {
	t.Run("连线正常通过", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "GPIO1", "GPIO2")
		board.Wire("GPIO1", "GPIO2")

		res := GPIOTest(config.GPIOConfig{PinA: "GPIO1", PinB: "GPIO2"})(board, autoPrompter())
		assert.Equal(t, boardtest.StatusPass, res.Status)
		assert.Equal(t, []string{"GPIO1", "GPIO2"}, res.Pins)
	})

	t.Run("引脚缺失跳过", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "GPIO1")
		res := GPIOTest(config.GPIOConfig{PinA: "GPIO1", PinB: "GPIO2"})(board, autoPrompter())
		assert.True(t, strings.HasPrefix(res.Status, "SKIPPED"))
	})

	t.Run("未连线失败", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "GPIO1", "GPIO2")
		res := GPIOTest(config.GPIOConfig{PinA: "GPIO1", PinB: "GPIO2"})(board, autoPrompter())
		assert.True(t, strings.HasPrefix(res.Status, "FAILED"), res.Status)
	})
}

// 测试UART回环
func TestUARTTest(t *testing.T) {
	t.Run("回环通过", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "UART_TX", "UART_RX")
		board.SetSerialFactory(func(tx, rx string, baud int) (hal.SerialLink, error) {
			return hal.NewLoopbackLink(), nil
		})

		res := UARTTest(config.UARTConfig{TXPin: "UART_TX", RXPin: "UART_RX", BaudRate: 9600})(board, autoPrompter())
		assert.Equal(t, boardtest.StatusPass, res.Status)
	})

	t.Run("无回环数据失败", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "UART_TX", "UART_RX")
		res := UARTTest(config.UARTConfig{TXPin: "UART_TX", RXPin: "UART_RX"})(board, autoPrompter())
		assert.Equal(t, boardtest.FailedStatus("no loopback data received"), res.Status)
	})
}

// 测试SPI回环
func TestSPITest(t *testing.T) {
	board := hal.NewMockBoard("mock", "SPI_MOSI", "SPI_MISO", "SPI_SCK", "SPI_CS")
	res := SPITest(config.SPIConfig{
		MOSIPin: "SPI_MOSI", MISOPin: "SPI_MISO", SCKPin: "SPI_SCK", CSPin: "SPI_CS",
	})(board, autoPrompter())
	assert.Equal(t, boardtest.StatusPass, res.Status)
	assert.Len(t, res.Pins, 4)
}

// 测试I2C扫描
func TestI2CTest(t *testing.T) {
	t.Run("有设备应答通过", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "I2C_SDA", "I2C_SCL")
		board.SetI2CDevices(0x3C, 0x68)

		res := I2CTest(config.I2CConfig{SDAPin: "I2C_SDA", SCLPin: "I2C_SCL"})(board, autoPrompter())
		require.Equal(t, boardtest.StatusPass, res.Status)
		assert.Equal(t, []byte{0x3C, 0x68}, res.Info["addresses"])
	})

	t.Run("空总线失败", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "I2C_SDA", "I2C_SCL")
		res := I2CTest(config.I2CConfig{SDAPin: "I2C_SDA", SCLPin: "I2C_SCL"})(board, autoPrompter())
		assert.Equal(t, boardtest.FailedStatus("no devices responded on bus"), res.Status)
	})
}

// 测试DAC/ADC相关性
func TestDACADCTest(t *testing.T) {
	// 模拟板的ADC按比例跟随DAC，应有接近1的相关系数
	board := hal.NewMockBoard("mock", "DAC0", "ADC0")
	res := DACADCTest(config.DACADCConfig{DACPin: "DAC0", ADCPin: "ADC0"})(board, autoPrompter())
	require.Equal(t, boardtest.StatusPass, res.Status, res.Status)
	assert.GreaterOrEqual(t, res.Info["r"].(float64), minPearsonR)
}

// 测试CAN回环
func TestCANTest(t *testing.T) {
	board := hal.NewMockBoard("mock", "CAN_TX", "CAN_RX")
	res := CANTest(config.CANConfig{TXPin: "CAN_TX", RXPin: "CAN_RX", Loopback: true})(board, autoPrompter())
	assert.Equal(t, boardtest.StatusPass, res.Status, res.Status)
}

// 测试触摸两段流程
func TestCapTouchTest(t *testing.T) {
	t.Run("按下后松开通过", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "TOUCH1", "TOUCH_LED")
		board.SetTouchScript(false, false, true, true, false)

		res := CapTouchTest(config.CapTouchConfig{
			Pin: "TOUCH1", LEDPin: "TOUCH_LED",
		})(board, autoPrompter())
		assert.Equal(t, boardtest.StatusPass, res.Status)
		assert.Equal(t, []string{"TOUCH1", "TOUCH_LED"}, res.Pins)
	})

	t.Run("从未按下超时失败", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "TOUCH1")
		board.SetTouchScript(false)

		res := CapTouchTest(config.CapTouchConfig{
			Pin: "TOUCH1", TouchTimeout: 100 * time.Millisecond,
		})(board, autoPrompter())
		assert.Equal(t, boardtest.FailedStatus("no touch detected within timeout"), res.Status)
	})
}

// 测试引脚对批量测试跳过保留引脚
func TestPinGroupTest(t *testing.T) {
	board := hal.NewMockBoard("mock", "D0", "D1", "CAN_TX", "CAN_RX")
	board.Wire("D0", "D1")

	res := PinGroupTest(config.PinGroupConfig{})(board, autoPrompter())
	// CAN引脚在保留集里，只测D0/D1
	assert.Equal(t, []string{"D0", "D1"}, res.Pins)
}

// 测试像素与显示在模拟板上的完整流程
func TestVisualTests(t *testing.T) {
	t.Run("像素灯带", func(t *testing.T) {
		board := hal.NewMockBoard("mock", "NEOPIX")
		res := NeoPixelTest(config.NeoPixelConfig{Pin: "NEOPIX", Count: 4})(board, autoPrompter())
		assert.Equal(t, boardtest.StatusPass, res.Status)
	})

	t.Run("显示屏", func(t *testing.T) {
		board := hal.NewMockBoard("mock")
		res := DisplayTest(config.DisplayConfig{})(board, autoPrompter())
		assert.Equal(t, boardtest.StatusPass, res.Status)
	})

	t.Run("搬板", func(t *testing.T) {
		board := hal.NewMockBoard("mock")
		res := MoveBoardTest(config.MoveBoardConfig{})(board, autoPrompter())
		assert.Equal(t, boardtest.StatusPass, res.Status)
	})
}
