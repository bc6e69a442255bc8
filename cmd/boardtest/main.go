package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/boardtest/tests"
	"github.com/wfunc/boardtest/internal/config"
	"github.com/wfunc/boardtest/internal/database"
	"github.com/wfunc/boardtest/internal/hal"
	"github.com/wfunc/boardtest/internal/logger"
	"github.com/wfunc/boardtest/internal/repository"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	logger.Info("测试套件启动",
		zap.String("version", Version),
		zap.String("board", cfg.Board.Name),
		zap.String("backend", cfg.Suite.Backend),
	)

	// 结果持久化（可选）
	var sink boardtest.ResultSink
	if cfg.Suite.SaveResults && cfg.Database.Enabled {
		if err := database.Init(&cfg.Database); err != nil {
			logger.LogError(err, "数据库初始化失败，结果将不持久化")
		} else {
			defer database.Close()
			sink = repository.NewTestRunRepository(database.GetDB())
		}
	}

	board, err := buildBoard(cfg)
	if err != nil {
		logger.LogError(err, "板级后端初始化失败")
		os.Exit(1)
	}

	prompter := boardtest.NewPrompter(cfg.Suite.Interactive)
	runner := boardtest.NewRunner(board, prompter)
	runner.SetPause(cfg.Suite.PauseBetween)
	if sink != nil {
		runner.SetSink(sink)
	}

	registerTests(runner, cfg)

	records := runner.Run()

	if !boardtest.AllPassed(records) {
		os.Exit(1)
	}
}

// buildBoard 按配置选择板级后端
func buildBoard(cfg *config.Config) (hal.Board, error) {
	switch cfg.Suite.Backend {
	case "mock":
		return hal.NewMockBoard(cfg.Board.Name, cfg.Board.Pins...), nil
	case "host":
		devices := make([]hal.SerialDevice, 0, len(cfg.Board.SerialDevices))
		for _, d := range cfg.Board.SerialDevices {
			devices = append(devices, hal.SerialDevice{
				TXPin:  d.TXPin,
				RXPin:  d.RXPin,
				Device: d.Device,
			})
		}
		return hal.NewHostBoard(cfg.Board.Name, cfg.Board.Pins, devices), nil
	default:
		return nil, fmt.Errorf("未知板级后端: %s", cfg.Suite.Backend)
	}
}

// registerTests 按固定顺序注册启用的测试项
func registerTests(r *boardtest.Runner, cfg *config.Config) {
	t := cfg.Tests
	if t.LED.Enabled {
		r.Add("LED", tests.LEDTest(t.LED))
	}
	if t.GPIO.Enabled {
		r.Add("GPIO", tests.GPIOTest(t.GPIO))
	}
	if t.NeoPixel.Enabled {
		r.Add("NeoPixel", tests.NeoPixelTest(t.NeoPixel))
	}
	if t.UART.Enabled {
		r.Add("UART", tests.UARTTest(t.UART))
	}
	if t.SPI.Enabled {
		r.Add("SPI", tests.SPITest(t.SPI))
	}
	if t.I2C.Enabled {
		r.Add("I2C", tests.I2CTest(t.I2C))
	}
	if t.AnalogOut.Enabled {
		r.Add("AnalogOut", tests.AnalogOutTest(t.AnalogOut))
	}
	if t.CAN.Enabled {
		r.Add("CAN", tests.CANTest(t.CAN))
	}
	if t.MoveBoard.Enabled {
		r.Add("MoveBoard", tests.MoveBoardTest(t.MoveBoard))
	}
	if t.CapTouch.Enabled {
		r.Add("CapTouch", tests.CapTouchTest(t.CapTouch))
	}
	if t.BLE.Enabled {
		r.Add("BLE UART", tests.BLETest(t.BLE))
	}
	if t.PinGroup.Enabled {
		r.Add("PinGroup", tests.PinGroupTest(t.PinGroup))
	}
	if t.DACADC.Enabled {
		r.Add("DAC/ADC", tests.DACADCTest(t.DACADC))
	}
	if t.Display.Enabled {
		r.Add("Display", tests.DisplayTest(t.Display))
	}
}

func printVersion() {
	fmt.Printf("boardtest %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Go version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func printHelp() {
	fmt.Println("boardtest - 板级硬件验收测试套件")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  boardtest [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -config string   配置文件路径 (默认查找 ./config/config.yaml)")
	fmt.Println("  -version         显示版本信息")
	fmt.Println("  -help            显示帮助信息")
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  BOARDTEST_*      覆盖对应配置项, 如 BOARDTEST_SUITE_BACKEND=host")
}
