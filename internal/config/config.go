package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Suite    SuiteConfig    `mapstructure:"suite"`
	Board    BoardConfig    `mapstructure:"board"`
	Tests    TestsConfig    `mapstructure:"tests"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// SuiteConfig 测试套件配置
type SuiteConfig struct {
	Interactive  bool          `mapstructure:"interactive"`   // 交互模式（操作员确认）
	Backend      string        `mapstructure:"backend"`       // mock | host
	SaveResults  bool          `mapstructure:"save_results"`  // 结果持久化
	PauseBetween time.Duration `mapstructure:"pause_between"` // 测试间暂停
}

// BoardConfig 被测板配置
type BoardConfig struct {
	Name          string         `mapstructure:"name"`
	Pins          []string       `mapstructure:"pins"`
	SerialDevices []SerialDevice `mapstructure:"serial_devices"`
}

// SerialDevice 逻辑引脚对到主机串口设备的映射
type SerialDevice struct {
	TXPin  string `mapstructure:"tx_pin"`
	RXPin  string `mapstructure:"rx_pin"`
	Device string `mapstructure:"device"`
}

// TestsConfig 各测试项配置
type TestsConfig struct {
	LED       LEDConfig       `mapstructure:"led"`
	GPIO      GPIOConfig      `mapstructure:"gpio"`
	NeoPixel  NeoPixelConfig  `mapstructure:"neopixel"`
	UART      UARTConfig      `mapstructure:"uart"`
	SPI       SPIConfig       `mapstructure:"spi"`
	I2C       I2CConfig       `mapstructure:"i2c"`
	AnalogOut AnalogOutConfig `mapstructure:"analog_out"`
	DACADC    DACADCConfig    `mapstructure:"dac_adc"`
	CAN       CANConfig       `mapstructure:"can"`
	CapTouch  CapTouchConfig  `mapstructure:"cap_touch"`
	MoveBoard MoveBoardConfig `mapstructure:"move_board"`
	Display   DisplayConfig   `mapstructure:"display"`
	BLE       BLEConfig       `mapstructure:"ble"`
	PinGroup  PinGroupConfig  `mapstructure:"pin_group"`
}

// LEDConfig LED闪烁测试配置
type LEDConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Pins    []string `mapstructure:"pins"`
	Blinks  int      `mapstructure:"blinks"`
}

// GPIOConfig GPIO回环测试配置
type GPIOConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	PinA    string   `mapstructure:"pin_a"`
	PinB    string   `mapstructure:"pin_b"`
	Skip    []string `mapstructure:"skip"`
}

// NeoPixelConfig 像素灯带测试配置
type NeoPixelConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Pin     string `mapstructure:"pin"`
	Count   int    `mapstructure:"count"`
}

// UARTConfig UART回环测试配置
type UARTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	TXPin    string `mapstructure:"tx_pin"`
	RXPin    string `mapstructure:"rx_pin"`
	BaudRate int    `mapstructure:"baud_rate"`
}

// SPIConfig SPI回环测试配置
type SPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	MOSIPin string `mapstructure:"mosi_pin"`
	MISOPin string `mapstructure:"miso_pin"`
	SCKPin  string `mapstructure:"sck_pin"`
	CSPin   string `mapstructure:"cs_pin"`
}

// I2CConfig I2C扫描测试配置
type I2CConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	SDAPin  string `mapstructure:"sda_pin"`
	SCLPin  string `mapstructure:"scl_pin"`
}

// AnalogOutConfig 模拟输出斜坡测试配置
type AnalogOutConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Pin     string `mapstructure:"pin"`
}

// DACADCConfig DAC/ADC相关性测试配置
type DACADCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DACPin  string `mapstructure:"dac_pin"`
	ADCPin  string `mapstructure:"adc_pin"`
}

// CANConfig CAN回环测试配置
type CANConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	TXPin    string `mapstructure:"tx_pin"`
	RXPin    string `mapstructure:"rx_pin"`
	BaudRate int    `mapstructure:"baud_rate"`
	Loopback bool   `mapstructure:"loopback"`
}

// CapTouchConfig 电容触摸测试配置
type CapTouchConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Pin            string        `mapstructure:"pin"`
	LEDPin         string        `mapstructure:"led_pin"`
	TouchTimeout   time.Duration `mapstructure:"touch_timeout"`
	ReleaseTimeout time.Duration `mapstructure:"release_timeout"`
}

// MoveBoardConfig 操作员搬板提示配置
type MoveBoardConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DisplayConfig 显示屏目视测试配置
type DisplayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// BLEConfig BLE-UART回显测试配置
type BLEConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	TXPin            string        `mapstructure:"tx_pin"`
	RXPin            string        `mapstructure:"rx_pin"`
	ResetPin         string        `mapstructure:"reset_pin"`
	BaudRate         int           `mapstructure:"baud_rate"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	UserTimeout      time.Duration `mapstructure:"user_timeout"`
	DoReset          bool          `mapstructure:"do_reset"`
	ResetActiveLow   bool          `mapstructure:"reset_active_low"`
	ActiveStateQuery bool          `mapstructure:"active_state_query"`
	StateQueryPeriod time.Duration `mapstructure:"state_query_period"`
	QuietShutdown    bool          `mapstructure:"quiet_shutdown"`
}

// PinGroupConfig 引脚对批量测试配置
type PinGroupConfig struct {
	Enabled  bool       `mapstructure:"enabled"`
	Pairs    [][]string `mapstructure:"pairs"`
	Reserved []string   `mapstructure:"reserved"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		// 设置配置文件路径
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 设置环境变量前缀
		v.SetEnvPrefix("BOARDTEST")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		// 设置默认值
		setDefaults(v)

		// 读取配置文件
		if err = v.ReadInConfig(); err != nil {
			// 如果配置文件不存在，使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		// 解析配置到结构体
		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			return
		}
	})

	return err
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 套件默认配置
	v.SetDefault("suite.interactive", true)
	v.SetDefault("suite.backend", "mock")
	v.SetDefault("suite.save_results", false)
	v.SetDefault("suite.pause_between", "0s")

	// 被测板默认配置
	v.SetDefault("board.name", "devboard")
	v.SetDefault("board.pins", []string{
		"LED1", "LED2",
		"GPIO1", "GPIO2",
		"NEOPIX",
		"UART_TX", "UART_RX",
		"SPI_MOSI", "SPI_MISO", "SPI_SCK", "SPI_CS",
		"I2C_SDA", "I2C_SCL",
		"AOUT", "DAC0", "ADC0",
		"CAN_TX", "CAN_RX",
		"TOUCH1", "TOUCH_LED",
		"BLE_TX", "BLE_RX", "BLE_CLR",
	})

	// 各测试项默认配置
	v.SetDefault("tests.led.enabled", true)
	v.SetDefault("tests.led.pins", []string{"LED1", "LED2"})
	v.SetDefault("tests.led.blinks", 3)

	v.SetDefault("tests.gpio.enabled", true)
	v.SetDefault("tests.gpio.pin_a", "GPIO1")
	v.SetDefault("tests.gpio.pin_b", "GPIO2")

	v.SetDefault("tests.neopixel.enabled", true)
	v.SetDefault("tests.neopixel.pin", "NEOPIX")
	v.SetDefault("tests.neopixel.count", 8)

	v.SetDefault("tests.uart.enabled", true)
	v.SetDefault("tests.uart.tx_pin", "UART_TX")
	v.SetDefault("tests.uart.rx_pin", "UART_RX")
	v.SetDefault("tests.uart.baud_rate", 9600)

	v.SetDefault("tests.spi.enabled", true)
	v.SetDefault("tests.spi.mosi_pin", "SPI_MOSI")
	v.SetDefault("tests.spi.miso_pin", "SPI_MISO")
	v.SetDefault("tests.spi.sck_pin", "SPI_SCK")
	v.SetDefault("tests.spi.cs_pin", "SPI_CS")

	v.SetDefault("tests.i2c.enabled", true)
	v.SetDefault("tests.i2c.sda_pin", "I2C_SDA")
	v.SetDefault("tests.i2c.scl_pin", "I2C_SCL")

	v.SetDefault("tests.analog_out.enabled", true)
	v.SetDefault("tests.analog_out.pin", "AOUT")

	v.SetDefault("tests.dac_adc.enabled", true)
	v.SetDefault("tests.dac_adc.dac_pin", "DAC0")
	v.SetDefault("tests.dac_adc.adc_pin", "ADC0")

	v.SetDefault("tests.can.enabled", true)
	v.SetDefault("tests.can.tx_pin", "CAN_TX")
	v.SetDefault("tests.can.rx_pin", "CAN_RX")
	v.SetDefault("tests.can.baud_rate", 250000)
	v.SetDefault("tests.can.loopback", false)

	v.SetDefault("tests.cap_touch.enabled", true)
	v.SetDefault("tests.cap_touch.pin", "TOUCH1")
	v.SetDefault("tests.cap_touch.led_pin", "TOUCH_LED")
	v.SetDefault("tests.cap_touch.touch_timeout", "30s")
	v.SetDefault("tests.cap_touch.release_timeout", "30s")

	v.SetDefault("tests.move_board.enabled", true)
	v.SetDefault("tests.display.enabled", true)

	// BLE回显默认配置
	v.SetDefault("tests.ble.enabled", true)
	v.SetDefault("tests.ble.tx_pin", "BLE_TX")
	v.SetDefault("tests.ble.rx_pin", "BLE_RX")
	v.SetDefault("tests.ble.reset_pin", "BLE_CLR")
	v.SetDefault("tests.ble.baud_rate", 115200)
	v.SetDefault("tests.ble.connect_timeout", "10s")
	v.SetDefault("tests.ble.user_timeout", "120s")
	v.SetDefault("tests.ble.do_reset", true)
	v.SetDefault("tests.ble.reset_active_low", true)
	v.SetDefault("tests.ble.active_state_query", false)
	v.SetDefault("tests.ble.state_query_period", "1s")
	v.SetDefault("tests.ble.quiet_shutdown", true)

	v.SetDefault("tests.pin_group.enabled", true)
	v.SetDefault("tests.pin_group.reserved", []string{
		"BLE_TX", "BLE_RX", "BLE_CLR", "NEOPIX",
	})

	// 数据库默认配置
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/boardtest.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "boardtest.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		cfg = newCfg

		if callback != nil {
			callback(cfg)
		}

		fmt.Println("配置已重新加载")
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool 获取布尔配置
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetDuration 获取时间间隔配置
func GetDuration(key string) time.Duration {
	return v.GetDuration(key)
}

// IsSet 检查配置项是否存在
func IsSet(key string) bool {
	return v.IsSet(key)
}

// Set 动态设置配置值
func Set(key string, value interface{}) {
	v.Set(key, value)
}
