package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	// 测试基本错误创建
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	// 测试带详情的错误
	err = New(ErrPinNotPresent, "BLE_TX 不在引脚表中")
	suite.NotNil(err)
	suite.Equal(ErrPinNotPresent, err.Code)
	suite.Equal("引脚不存在", err.Message)
	suite.Equal("BLE_TX 不在引脚表中", err.Details)

	// 测试多个详情
	err = New(ErrSerialPortOpen, "打开失败", "端口: /dev/ttyUSB0", "波特率: 115200")
	suite.Equal("打开失败; 端口: /dev/ttyUSB0; 波特率: 115200", err.Details)
}

// 测试格式化错误创建
func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrNoConnection, "等待 %ds 后仍无连接", 10)
	suite.NotNil(err)
	suite.Equal(ErrNoConnection, err.Code)
	suite.Equal("等待 10s 后仍无连接", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	// 包装标准错误
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrSerialPortRead)
	suite.NotNil(wrappedErr)
	suite.Equal(ErrSerialPortRead, wrappedErr.Code)
	suite.Equal("原始错误", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	// 包装nil错误
	nilErr := Wrap(nil, ErrUnknown)
	suite.Nil(nilErr)

	// 包装已有的AppError
	appErr := New(ErrPinNotPresent, "引脚缺失")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "额外信息")
	suite.Equal(ErrPinNotPresent, wrappedAppErr.Code) // 保留原始错误码
	suite.Contains(wrappedAppErr.Details, "额外信息")
}

// 测试格式化错误包装
func (suite *ErrorsTestSuite) TestWrapf() {
	originalErr := errors.New("连接超时")
	wrappedErr := Wrapf(originalErr, ErrDatabaseConnect, "数据库 %s 连接失败", "sqlite")
	suite.NotNil(wrappedErr)
	suite.Equal(ErrDatabaseConnect, wrappedErr.Code)
	suite.Equal("数据库 sqlite 连接失败", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)
}

// 测试错误码判断
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrNoUserText)
	suite.True(Is(err, ErrNoUserText))
	suite.False(Is(err, ErrNotFound))
	suite.False(Is(nil, ErrNoUserText))

	// 标准错误不匹配任何错误码
	stdErr := errors.New("标准错误")
	suite.False(Is(stdErr, ErrUnknown))
}

// 测试获取错误码
func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrorCode(0), GetCode(nil))
	suite.Equal(ErrSerialTimeout, GetCode(New(ErrSerialTimeout)))
	suite.Equal(ErrUnknown, GetCode(errors.New("标准错误")))
}

// 测试可重试判断
func (suite *ErrorsTestSuite) TestIsRetryable() {
	suite.True(IsRetryable(New(ErrTimeout)))
	suite.True(IsRetryable(New(ErrSerialTimeout)))
	suite.True(IsRetryable(New(ErrPinBusy)))
	suite.False(IsRetryable(New(ErrConfigLoad)))
	suite.False(IsRetryable(nil))
}

// 测试严重错误判断
func (suite *ErrorsTestSuite) TestIsCritical() {
	suite.True(IsCritical(New(ErrSerialPortOpen)))
	suite.True(IsCritical(New(ErrConfigMissing)))
	suite.False(IsCritical(New(ErrNoConnection)))
	suite.False(IsCritical(nil))
}

// 测试错误消息格式
func (suite *ErrorsTestSuite) TestErrorString() {
	err := New(ErrNoConnection)
	suite.Equal("[3001] 超时内未检测到连接", err.Error())

	err = New(ErrNoConnection, "等待10秒")
	suite.Equal("[3001] 超时内未检测到连接: 等待10秒", err.Error())
}

// 测试Unwrap
func (suite *ErrorsTestSuite) TestUnwrap() {
	originalErr := errors.New("底层错误")
	wrappedErr := Wrap(originalErr, ErrSerialPortWrite)
	suite.Equal(originalErr, errors.Unwrap(wrappedErr))
	suite.True(errors.Is(wrappedErr, originalErr))
}

// TestErrorsTestSuite 运行测试套件
func TestErrorsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
