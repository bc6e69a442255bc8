package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/errors"
)

// TestRunRepositoryTestSuite 套件执行仓储测试
type TestRunRepositoryTestSuite struct {
	suite.Suite
	repo *TestRunRepository
}

func (suite *TestRunRepositoryTestSuite) SetupTest() {
	db := SetupTestDB()
	suite.repo = NewTestRunRepository(db)
}

func (suite *TestRunRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.repo.GetDB())
}

// 测试保存与读取一次套件执行
func (suite *TestRunRepositoryTestSuite) TestSaveAndGet() {
	records := []boardtest.Record{
		{
			Name:     "BLE UART",
			Result:   boardtest.Result{Status: "PASS", Pins: []string{"BLE_TX", "BLE_RX"}, Info: map[string]interface{}{"received": "hi"}},
			Duration: 1200 * time.Millisecond,
		},
		{
			Name:     "I2C",
			Result:   boardtest.Result{Status: "FAILED (no devices responded on bus)", Pins: []string{"I2C_SDA", "I2C_SCL"}},
			Duration: 300 * time.Millisecond,
		},
	}

	err := suite.repo.SaveRun("devboard", records)
	suite.NoError(err)

	runs, err := suite.repo.ListByBoard("devboard", NewPagination(1, 10))
	suite.NoError(err)
	suite.Len(runs, 1)
	suite.Equal(2, runs[0].Total)
	suite.Equal(1, runs[0].Passed)
	suite.False(runs[0].AllPassed)

	got, err := suite.repo.GetByRunID(runs[0].RunID)
	suite.NoError(err)
	suite.Len(got.Results, 2)
	suite.Equal("BLE UART", got.Results[0].TestName)
	suite.Equal([]string{"BLE_TX", "BLE_RX"}, []string(got.Results[0].Pins))
	suite.EqualValues(1200, got.Results[0].Duration)
}

// 测试不存在的执行标识
func (suite *TestRunRepositoryTestSuite) TestGetNotFound() {
	_, err := suite.repo.GetByRunID("no-such-run")
	suite.True(errors.Is(err, errors.ErrNotFound))
}

// 测试通过率统计
func (suite *TestRunRepositoryTestSuite) TestPassRate() {
	pass := []boardtest.Record{{Name: "LED", Result: boardtest.Result{Status: "PASS"}}}
	fail := []boardtest.Record{{Name: "LED", Result: boardtest.Result{Status: "FAILED (x)"}}}

	suite.NoError(suite.repo.SaveRun("devboard", pass))
	suite.NoError(suite.repo.SaveRun("devboard", pass))
	suite.NoError(suite.repo.SaveRun("devboard", fail))

	rate, err := suite.repo.PassRate("devboard", time.Now().Add(-time.Hour))
	suite.NoError(err)
	suite.InDelta(2.0/3.0, rate, 0.01)
}

// 测试跳过项不影响整体结论
func (suite *TestRunRepositoryTestSuite) TestSkippedCountsAsPassed() {
	records := []boardtest.Record{
		{Name: "LED", Result: boardtest.Result{Status: "PASS"}},
		{Name: "CAN", Result: boardtest.Result{Status: "SKIPPED (no CAN pins)"}},
	}
	suite.NoError(suite.repo.SaveRun("devboard", records))

	runs, err := suite.repo.ListByBoard("devboard", NewPagination(1, 10))
	suite.NoError(err)
	suite.True(runs[0].AllPassed)
}

func TestTestRunRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TestRunRepositoryTestSuite))
}

// SerialTraceRepositoryTestSuite 串行记录仓储测试
type SerialTraceRepositoryTestSuite struct {
	suite.Suite
	repo *SerialTraceRepository
}

func (suite *SerialTraceRepositoryTestSuite) SetupTest() {
	db := SetupTestDB()
	suite.repo = NewSerialTraceRepository(db)
}

func (suite *SerialTraceRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.repo.GetDB())
}

// 测试记录与查询收发
func (suite *SerialTraceRepositoryTestSuite) TestRecordAndList() {
	suite.NoError(suite.repo.Record(1, "tx", []byte("READY\r\n")))
	suite.NoError(suite.repo.Record(1, "rx", []byte{0xDE, 0xAD}))
	suite.NoError(suite.repo.Record(2, "rx", []byte("other run")))

	traces, err := suite.repo.ListByRun(1)
	suite.NoError(err)
	suite.Len(traces, 2)
	suite.Equal("tx", traces[0].Direction)
	suite.Equal("dead", traces[1].HexData)
	suite.Equal(2, traces[1].BytesCount)
}

func TestSerialTraceRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(SerialTraceRepositoryTestSuite))
}
