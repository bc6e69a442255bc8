package hal

import (
	"time"
)

// Pull 输入引脚上拉/下拉模式
type Pull int

const (
	PullNone Pull = 0
	PullUp   Pull = 1
	PullDown Pull = 2
)

// Pin 数字输出引脚（复位线等只写场景）
type Pin interface {
	// Set 设置输出电平
	Set(value bool) error
	// Release 释放引脚资源
	Release()
}

// DigitalPin 可切换方向的数字引脚
type DigitalPin interface {
	Pin
	// SwitchToInput 切换为输入并设置上拉模式
	SwitchToInput(pull Pull) error
	// Get 读取当前电平
	Get() (bool, error)
}

// SerialLink 半双工字节串行链路（非阻塞读）
type SerialLink interface {
	// BytesAvailable 当前可读字节数
	BytesAvailable() int
	// Read 读取最多max字节，无数据时立即返回空
	Read(max int) ([]byte, error)
	// Write 写入全部字节
	Write(p []byte) (int, error)
	// Release 关闭并释放底层外设
	Release() error
}

// AnalogIn 模拟输入（16位刻度）
type AnalogIn interface {
	Value() (uint16, error)
	Release()
}

// AnalogOut 模拟输出（16位刻度）
type AnalogOut interface {
	SetValue(value uint16) error
	Release()
}

// TouchPad 电容触摸按键
type TouchPad interface {
	Touched() (bool, error)
	Release()
}

// PixelStrip 可寻址RGB(W)像素灯带
type PixelStrip interface {
	Count() int
	SetPixel(i int, r, g, b, w uint8) error
	Show() error
	Release()
}

// I2CBus I2C总线
type I2CBus interface {
	// Scan 扫描总线，返回应答的7位地址
	Scan() ([]byte, error)
	Release()
}

// SPIBus SPI总线（全双工传输）
type SPIBus interface {
	Transfer(out []byte) ([]byte, error)
	Release()
}

// CANFrame CAN数据帧
type CANFrame struct {
	ID   uint32
	Data []byte
}

// CANBus CAN总线
type CANBus interface {
	Send(frame CANFrame) error
	// Receive 等待一帧，超时返回ErrSerialTimeout
	Receive(timeout time.Duration) (CANFrame, error)
	State() string
	Release()
}

// Display 简单帧缓冲显示屏
type Display interface {
	Size() (width, height int)
	// ShowSprite 在指定位置显示测试精灵
	ShowSprite(x, y int) error
	// ShowTextLines 显示多行文本
	ShowTextLines(lines []string) error
	Release()
}

// Board 板级硬件抽象。测试模块只通过该接口触碰硬件；
// 某项能力不可用时返回错误，由测试转换为SKIPPED/NA结果。
type Board interface {
	Name() string
	// Pins 引脚名全集（有序）
	Pins() []string
	// Has 引脚名是否存在
	Has(name string) bool

	// ClaimDigital 独占申请数字引脚
	ClaimDigital(name string) (DigitalPin, error)
	// OpenSerial 以指定波特率打开非阻塞串行链路
	OpenSerial(txPin, rxPin string, baud int) (SerialLink, error)

	ClaimAnalogIn(name string) (AnalogIn, error)
	ClaimAnalogOut(name string) (AnalogOut, error)
	ClaimTouch(name string) (TouchPad, error)
	ClaimPixels(name string, count int) (PixelStrip, error)
	OpenI2C(sdaPin, sclPin string) (I2CBus, error)
	OpenSPI(mosiPin, misoPin, sckPin, csPin string) (SPIBus, error)
	OpenCAN(txPin, rxPin string, baud int, loopback bool) (CANBus, error)
	OpenDisplay() (Display, error)
}
