package boardtest

import "fmt"

// 测试结果状态字面量
const (
	StatusPass = "PASS"
	StatusNA   = "N/A"
)

// Result 单项测试结果
type Result struct {
	Status string                 // PASS / FAILED (...) / FAIL (...) / SKIPPED (...) / N/A
	Pins   []string               // 本项覆盖到的引脚
	Info   map[string]interface{} // 附加信息（回显文本、相关系数等）
}

// Passed 是否通过
func (r Result) Passed() bool {
	return r.Status == StatusPass
}

// FailedStatus 阶段失败状态
func FailedStatus(reason string) string {
	return fmt.Sprintf("FAILED (%s)", reason)
}

// FailStatus 异常恢复失败状态
func FailStatus(cause interface{}) string {
	return fmt.Sprintf("FAIL (%v)", cause)
}

// SkippedStatus 跳过状态
func SkippedStatus(reason string) string {
	return fmt.Sprintf("SKIPPED (%s)", reason)
}

// Pass 构造通过结果
func Pass(pins ...string) Result {
	return Result{Status: StatusPass, Pins: pins}
}

// Failed 构造阶段失败结果
func Failed(reason string, pins ...string) Result {
	return Result{Status: FailedStatus(reason), Pins: pins}
}

// Skipped 构造跳过结果
func Skipped(reason string) Result {
	return Result{Status: SkippedStatus(reason)}
}

// NA 构造不适用结果
func NA() Result {
	return Result{Status: StatusNA}
}
