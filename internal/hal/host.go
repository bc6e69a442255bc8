package hal

import (
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"

	"github.com/wfunc/boardtest/internal/errors"
	"github.com/wfunc/boardtest/internal/logger"
)

// SerialDevice 逻辑引脚对到主机串口设备的映射
type SerialDevice struct {
	TXPin  string
	RXPin  string
	Device string
}

// HostBoard 主机后端：通过USB转串口适配器连接被测板。
// 只提供串行链路能力；GPIO、模拟量等在主机上不可用，
// 对应测试会得到SKIPPED结果。
type HostBoard struct {
	name    string
	pins    []string
	devices []SerialDevice
}

// NewHostBoard 创建主机后端
func NewHostBoard(name string, pins []string, devices []SerialDevice) *HostBoard {
	return &HostBoard{
		name:    name,
		pins:    append([]string(nil), pins...),
		devices: append([]SerialDevice(nil), devices...),
	}
}

func (b *HostBoard) Name() string { return b.name }

func (b *HostBoard) Pins() []string {
	return append([]string(nil), b.pins...)
}

func (b *HostBoard) Has(name string) bool {
	for _, p := range b.pins {
		if p == name {
			return true
		}
	}
	return false
}

// ClaimDigital 主机无直接GPIO能力
func (b *HostBoard) ClaimDigital(name string) (DigitalPin, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持GPIO: "+name)
}

// OpenSerial 按引脚对查找映射设备并打开串口
func (b *HostBoard) OpenSerial(txPin, rxPin string, baud int) (SerialLink, error) {
	var device string
	for _, d := range b.devices {
		if d.TXPin == txPin && d.RXPin == rxPin {
			device = d.Device
			break
		}
	}
	if device == "" {
		return nil, errors.Newf(errors.ErrPinNotPresent, "引脚对 %s/%s 未映射串口设备", txPin, rxPin)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSerialPortOpen, "设备 %s 波特率 %d", device, baud)
	}

	l := &hostLink{port: port, device: device}
	l.wg.Add(1)
	go l.pump()
	return l, nil
}

func (b *HostBoard) ClaimAnalogIn(name string) (AnalogIn, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持模拟输入")
}

func (b *HostBoard) ClaimAnalogOut(name string) (AnalogOut, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持模拟输出")
}

func (b *HostBoard) ClaimTouch(name string) (TouchPad, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持电容触摸")
}

func (b *HostBoard) ClaimPixels(name string, count int) (PixelStrip, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持像素灯带")
}

func (b *HostBoard) OpenI2C(sdaPin, sclPin string) (I2CBus, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持I2C")
}

func (b *HostBoard) OpenSPI(mosiPin, misoPin, sckPin, csPin string) (SPIBus, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持SPI")
}

func (b *HostBoard) OpenCAN(txPin, rxPin string, baud int, loopback bool) (CANBus, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持CAN")
}

func (b *HostBoard) OpenDisplay() (Display, error) {
	return nil, errors.New(errors.ErrBusUnavailable, "主机后端不支持显示屏")
}

// hostLink 泵送式串行链路。串口本身只有阻塞读，
// 后台协程把收到的字节灌入缓冲，BytesAvailable/Read
// 在缓冲上做非阻塞语义。
type hostLink struct {
	port   *serial.Port
	device string

	mu     sync.Mutex
	buf    []byte
	closed bool
	wg     sync.WaitGroup
}

// pump 后台读取泵。ReadTimeout下n==0表示本轮无数据。
func (l *hostLink) pump() {
	defer l.wg.Done()
	chunk := make([]byte, 256)
	for {
		n, err := l.port.Read(chunk)
		if n > 0 {
			l.mu.Lock()
			l.buf = append(l.buf, chunk[:n]...)
			l.mu.Unlock()
		}
		if err != nil && err != io.EOF {
			l.mu.Lock()
			closed := l.closed
			l.mu.Unlock()
			if !closed {
				logger.WithModule("serial").Warn("串口读取泵退出",
					zap.String("device", l.device),
					zap.Error(err))
			}
			return
		}
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()
	}
}

func (l *hostLink) BytesAvailable() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buf)
}

func (l *hostLink) Read(max int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if max <= 0 || len(l.buf) == 0 {
		return nil, nil
	}
	if max > len(l.buf) {
		max = len(l.buf)
	}
	out := append([]byte(nil), l.buf[:max]...)
	l.buf = l.buf[max:]
	return out, nil
}

func (l *hostLink) Write(p []byte) (int, error) {
	n, err := l.port.Write(p)
	if err != nil {
		return n, errors.Wrap(err, errors.ErrSerialPortWrite)
	}
	return n, nil
}

func (l *hostLink) Release() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	err := l.port.Close()
	l.wg.Wait()
	if err != nil {
		return errors.Wrap(err, errors.ErrSerialPortRead, "关闭串口失败")
	}
	return nil
}
