package hal

import (
	"bytes"
	"sync"
	"time"

	"github.com/wfunc/boardtest/internal/errors"
)

// MockBoard 模拟板级后端（mock_mode和单元测试使用）。
// 所有能力默认可用；串口、I2C、模拟量等行为可脚本化。
type MockBoard struct {
	mu      sync.Mutex
	name    string
	pins    []string
	claimed map[string]bool
	levels  map[string]bool

	// 串口工厂，默认返回独立的MockLink
	serialFactory func(txPin, rxPin string, baud int) (SerialLink, error)

	// I2C扫描应答地址
	i2cAddrs []byte
	// 触摸脚本（按轮询顺序消费，耗尽后重复最后一个值）
	touchScript []bool
	// DAC->ADC模拟网络：AnalogIn跟随AnalogOut的设定值
	analogNet *analogNet
	// 数字引脚对连线：a<->b 电平互通（引脚对测试）
	wires map[string]string
}

// NewMockBoard 创建模拟板，引脚全集由调用方给定
func NewMockBoard(name string, pins ...string) *MockBoard {
	return &MockBoard{
		name:      name,
		pins:      append([]string(nil), pins...),
		claimed:   make(map[string]bool),
		levels:    make(map[string]bool),
		analogNet: &analogNet{},
		wires:     make(map[string]string),
	}
}

// SetSerialFactory 替换串口工厂（测试注入脚本化链路）
func (b *MockBoard) SetSerialFactory(f func(txPin, rxPin string, baud int) (SerialLink, error)) {
	b.serialFactory = f
}

// SetI2CDevices 设置I2C扫描应答地址
func (b *MockBoard) SetI2CDevices(addrs ...byte) {
	b.i2cAddrs = append([]byte(nil), addrs...)
}

// SetTouchScript 设置触摸脚本
func (b *MockBoard) SetTouchScript(values ...bool) {
	b.touchScript = append([]bool(nil), values...)
}

// Wire 连接两个数字引脚（双向）
func (b *MockBoard) Wire(a, c string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wires[a] = c
	b.wires[c] = a
}

// PinLevel 读取引脚最后一次输出电平（测试断言用）
func (b *MockBoard) PinLevel(name string) (bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.levels[name]
	return v, ok
}

// IsClaimed 引脚当前是否被占用（测试断言用）
func (b *MockBoard) IsClaimed(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.claimed[name]
}

func (b *MockBoard) Name() string { return b.name }

func (b *MockBoard) Pins() []string {
	return append([]string(nil), b.pins...)
}

func (b *MockBoard) Has(name string) bool {
	for _, p := range b.pins {
		if p == name {
			return true
		}
	}
	return false
}

// ClaimDigital 独占申请数字引脚
func (b *MockBoard) ClaimDigital(name string) (DigitalPin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasLocked(name) {
		return nil, errors.New(errors.ErrPinNotPresent, name)
	}
	if b.claimed[name] {
		return nil, errors.New(errors.ErrPinBusy, name)
	}
	b.claimed[name] = true
	return &mockPin{board: b, name: name}, nil
}

func (b *MockBoard) hasLocked(name string) bool {
	for _, p := range b.pins {
		if p == name {
			return true
		}
	}
	return false
}

// OpenSerial 打开模拟串行链路
func (b *MockBoard) OpenSerial(txPin, rxPin string, baud int) (SerialLink, error) {
	if !b.Has(txPin) || !b.Has(rxPin) {
		return nil, errors.Newf(errors.ErrPinNotPresent, "%s/%s", txPin, rxPin)
	}
	if b.serialFactory != nil {
		return b.serialFactory(txPin, rxPin, baud)
	}
	return NewMockLink(), nil
}

func (b *MockBoard) ClaimAnalogIn(name string) (AnalogIn, error) {
	if !b.Has(name) {
		return nil, errors.New(errors.ErrPinNotPresent, name)
	}
	return &mockAnalogIn{net: b.analogNet}, nil
}

func (b *MockBoard) ClaimAnalogOut(name string) (AnalogOut, error) {
	if !b.Has(name) {
		return nil, errors.New(errors.ErrPinNotPresent, name)
	}
	return &mockAnalogOut{net: b.analogNet}, nil
}

func (b *MockBoard) ClaimTouch(name string) (TouchPad, error) {
	if !b.Has(name) {
		return nil, errors.New(errors.ErrPinNotPresent, name)
	}
	return &mockTouch{board: b}, nil
}

func (b *MockBoard) ClaimPixels(name string, count int) (PixelStrip, error) {
	if !b.Has(name) {
		return nil, errors.New(errors.ErrPinNotPresent, name)
	}
	return &mockPixels{count: count}, nil
}

func (b *MockBoard) OpenI2C(sdaPin, sclPin string) (I2CBus, error) {
	if !b.Has(sdaPin) || !b.Has(sclPin) {
		return nil, errors.Newf(errors.ErrPinNotPresent, "%s/%s", sdaPin, sclPin)
	}
	return &mockI2C{addrs: append([]byte(nil), b.i2cAddrs...)}, nil
}

func (b *MockBoard) OpenSPI(mosiPin, misoPin, sckPin, csPin string) (SPIBus, error) {
	for _, p := range []string{mosiPin, misoPin, sckPin, csPin} {
		if !b.Has(p) {
			return nil, errors.New(errors.ErrPinNotPresent, p)
		}
	}
	return &mockSPI{}, nil
}

func (b *MockBoard) OpenCAN(txPin, rxPin string, baud int, loopback bool) (CANBus, error) {
	if !b.Has(txPin) || !b.Has(rxPin) {
		return nil, errors.Newf(errors.ErrPinNotPresent, "%s/%s", txPin, rxPin)
	}
	return &mockCAN{loopback: loopback}, nil
}

func (b *MockBoard) OpenDisplay() (Display, error) {
	return &mockDisplay{width: 240, height: 135}, nil
}

// mockPin 模拟数字引脚
type mockPin struct {
	board    *MockBoard
	name     string
	input    bool
	pull     Pull
	released bool
}

func (p *mockPin) Set(value bool) error {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	if p.released {
		return errors.New(errors.ErrPinNotPresent, p.name+" 已释放")
	}
	p.input = false
	p.board.levels[p.name] = value
	return nil
}

func (p *mockPin) SwitchToInput(pull Pull) error {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	if p.released {
		return errors.New(errors.ErrPinNotPresent, p.name+" 已释放")
	}
	p.input = true
	p.pull = pull
	delete(p.board.levels, p.name)
	return nil
}

// Get 读取电平：有连线时取对端电平，无驱动时按上拉返回
func (p *mockPin) Get() (bool, error) {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	if p.released {
		return false, errors.New(errors.ErrPinNotPresent, p.name+" 已释放")
	}
	if peer, ok := p.board.wires[p.name]; ok {
		if v, driven := p.board.levels[peer]; driven {
			return v, nil
		}
	}
	// 无驱动：上拉读高，其余读低
	return p.pull == PullUp, nil
}

func (p *mockPin) Release() {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	if !p.released {
		p.released = true
		delete(p.board.claimed, p.name)
		delete(p.board.levels, p.name)
	}
}

// MockLink 脚本化串行链路。测试通过FeedRX注入接收数据，
// 通过Written检查发送数据。
type MockLink struct {
	mu       sync.Mutex
	rx       bytes.Buffer
	tx       bytes.Buffer
	released bool
	loopback bool
	writeErr error
	readErr  error
	// PanicOnRead 触发读取panic（异常路径注入）
	panicOnRead bool
}

// NewMockLink 创建脚本化链路
func NewMockLink() *MockLink {
	return &MockLink{}
}

// NewLoopbackLink 创建回环链路（写入直接回灌接收缓冲）
func NewLoopbackLink() *MockLink {
	return &MockLink{loopback: true}
}

// FeedRX 注入接收字节
func (l *MockLink) FeedRX(p []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rx.Write(p)
}

// FeedRXAfter 延迟注入接收字节
func (l *MockLink) FeedRXAfter(d time.Duration, p []byte) {
	time.AfterFunc(d, func() { l.FeedRX(p) })
}

// Written 返回累计写入的字节
func (l *MockLink) Written() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.tx.Bytes()...)
}

// Released 链路是否已释放
func (l *MockLink) Released() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

// SetWriteError 注入写入错误
func (l *MockLink) SetWriteError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeErr = err
}

// SetReadError 注入读取错误
func (l *MockLink) SetReadError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readErr = err
}

// SetPanicOnRead 注入一次性读取panic（瞬时驱动故障）
func (l *MockLink) SetPanicOnRead(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.panicOnRead = v
}

func (l *MockLink) BytesAvailable() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.panicOnRead {
		l.panicOnRead = false
		panic("模拟链路读取故障")
	}
	return l.rx.Len()
}

func (l *MockLink) Read(max int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readErr != nil {
		return nil, l.readErr
	}
	if max <= 0 || l.rx.Len() == 0 {
		return nil, nil
	}
	if max > l.rx.Len() {
		max = l.rx.Len()
	}
	out := make([]byte, max)
	n, _ := l.rx.Read(out)
	return out[:n], nil
}

func (l *MockLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return 0, l.writeErr
	}
	l.tx.Write(p)
	if l.loopback {
		l.rx.Write(p)
	}
	return len(p), nil
}

func (l *MockLink) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = true
	return nil
}

// analogNet 模拟DAC->ADC网络：输入按比例跟随输出
type analogNet struct {
	mu    sync.Mutex
	value uint16
}

type mockAnalogOut struct{ net *analogNet }

func (a *mockAnalogOut) SetValue(v uint16) error {
	a.net.mu.Lock()
	defer a.net.mu.Unlock()
	a.net.value = v
	return nil
}

func (a *mockAnalogOut) Release() {}

type mockAnalogIn struct{ net *analogNet }

func (a *mockAnalogIn) Value() (uint16, error) {
	a.net.mu.Lock()
	defer a.net.mu.Unlock()
	// 模拟轻微衰减的跟随
	return uint16(float64(a.net.value) * 0.95), nil
}

func (a *mockAnalogIn) Release() {}

type mockTouch struct {
	board *MockBoard
	idx   int
}

func (t *mockTouch) Touched() (bool, error) {
	t.board.mu.Lock()
	defer t.board.mu.Unlock()
	script := t.board.touchScript
	if len(script) == 0 {
		return false, nil
	}
	if t.idx >= len(script) {
		return script[len(script)-1], nil
	}
	v := script[t.idx]
	t.idx++
	return v, nil
}

func (t *mockTouch) Release() {}

type mockPixels struct {
	count  int
	shown  int
	pixels [][4]uint8
}

func (p *mockPixels) Count() int { return p.count }

func (p *mockPixels) SetPixel(i int, r, g, b, w uint8) error {
	if i < 0 || i >= p.count {
		return errors.Newf(errors.ErrInvalidParam, "像素下标 %d 超界", i)
	}
	for len(p.pixels) < p.count {
		p.pixels = append(p.pixels, [4]uint8{})
	}
	p.pixels[i] = [4]uint8{r, g, b, w}
	return nil
}

func (p *mockPixels) Show() error {
	p.shown++
	return nil
}

func (p *mockPixels) Release() {}

type mockI2C struct{ addrs []byte }

func (b *mockI2C) Scan() ([]byte, error) {
	return append([]byte(nil), b.addrs...), nil
}

func (b *mockI2C) Release() {}

// mockSPI 回环SPI：MISO返回MOSI发出的字节
type mockSPI struct{}

func (b *mockSPI) Transfer(out []byte) ([]byte, error) {
	return append([]byte(nil), out...), nil
}

func (b *mockSPI) Release() {}

// mockCAN 控制器回环CAN
type mockCAN struct {
	mu       sync.Mutex
	loopback bool
	queue    []CANFrame
}

func (c *mockCAN) Send(frame CANFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loopback {
		f := CANFrame{ID: frame.ID, Data: append([]byte(nil), frame.Data...)}
		c.queue = append(c.queue, f)
	}
	return nil
}

func (c *mockCAN) Receive(timeout time.Duration) (CANFrame, error) {
	deadline := time.Now().Add(timeout)
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			f := c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return f, nil
		}
		c.mu.Unlock()
		if !time.Now().Before(deadline) {
			return CANFrame{}, errors.New(errors.ErrSerialTimeout, "CAN接收超时")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (c *mockCAN) State() string {
	if c.loopback {
		return "LOOPBACK"
	}
	return "NORMAL"
}

func (c *mockCAN) Release() {}

type mockDisplay struct {
	width, height int
	spriteShown   bool
	textShown     bool
}

func (d *mockDisplay) Size() (int, int) { return d.width, d.height }

func (d *mockDisplay) ShowSprite(x, y int) error {
	d.spriteShown = true
	return nil
}

func (d *mockDisplay) ShowTextLines(lines []string) error {
	d.textShown = true
	return nil
}

func (d *mockDisplay) Release() {}
