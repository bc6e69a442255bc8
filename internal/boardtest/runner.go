package boardtest

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/boardtest/internal/hal"
	"github.com/wfunc/boardtest/internal/logger"
)

// TestFunc 单项测试入口
type TestFunc func(board hal.Board, p *Prompter) Result

// TestCase 命名测试项
type TestCase struct {
	Name string
	Run  TestFunc
}

// Record 带名称和耗时的结果记录
type Record struct {
	Name     string
	Result   Result
	Duration time.Duration
}

// ResultSink 结果持久化接口，由仓储层实现
type ResultSink interface {
	SaveRun(boardName string, records []Record) error
}

// Runner 顺序执行测试项并汇总引脚覆盖
type Runner struct {
	board        hal.Board
	prompter     *Prompter
	cases        []TestCase
	pauseBetween time.Duration
	sink         ResultSink
	log          *zap.Logger
}

// NewRunner 创建测试运行器
func NewRunner(board hal.Board, p *Prompter) *Runner {
	return &Runner{
		board:    board,
		prompter: p,
		log:      logger.WithModule("suite"),
	}
}

// Add 追加测试项
func (r *Runner) Add(name string, fn TestFunc) {
	r.cases = append(r.cases, TestCase{Name: name, Run: fn})
}

// SetPause 设置测试间暂停
func (r *Runner) SetPause(d time.Duration) {
	r.pauseBetween = d
}

// SetSink 设置结果持久化
func (r *Runner) SetSink(sink ResultSink) {
	r.sink = sink
}

// Run 执行全部测试项，返回结果记录
func (r *Runner) Run() []Record {
	r.banner()

	records := make([]Record, 0, len(r.cases))
	for i, tc := range r.cases {
		r.prompter.Say("")
		r.prompter.Say("=== %s ===", tc.Name)

		start := time.Now()
		res := tc.Run(r.board, r.prompter)
		elapsed := time.Since(start)

		records = append(records, Record{Name: tc.Name, Result: res, Duration: elapsed})
		r.prompter.Say("%s: %s", tc.Name, res.Status)
		logger.LogTestResult(tc.Name, res.Status, res.Pins, elapsed)

		if r.pauseBetween > 0 && i < len(r.cases)-1 {
			time.Sleep(r.pauseBetween)
		}
	}

	r.summary(records)

	if r.sink != nil {
		if err := r.sink.SaveRun(r.board.Name(), records); err != nil {
			logger.LogError(err, "结果持久化失败")
		}
	}

	return records
}

// banner 套件头部横幅
func (r *Runner) banner() {
	r.prompter.Say(strings.Repeat("*", 60))
	r.prompter.Say("* Board acceptance test: %s", r.board.Name())
	r.prompter.Say(strings.Repeat("*", 60))
}

// summary 汇总结果与引脚覆盖
func (r *Runner) summary(records []Record) {
	tested := make(map[string]bool)
	passCount := 0

	r.prompter.Say("")
	r.prompter.Say(strings.Repeat("-", 60))
	r.prompter.Say("Results:")
	for _, rec := range records {
		r.prompter.Say("  %-16s %s", rec.Name, rec.Result.Status)
		if rec.Result.Passed() {
			passCount++
		}
		for _, pin := range rec.Result.Pins {
			tested[pin] = true
		}
	}

	var testedList, untested []string
	for _, pin := range r.board.Pins() {
		if tested[pin] {
			testedList = append(testedList, pin)
		} else {
			untested = append(untested, pin)
		}
	}
	sort.Strings(testedList)
	sort.Strings(untested)

	r.prompter.Say("")
	r.prompter.Say("Pins tested: %s", strings.Join(testedList, ", "))
	if len(untested) > 0 {
		r.prompter.Say("Pins NOT tested: %s", strings.Join(untested, ", "))
	}
	r.prompter.Say("%d/%d tests passed", passCount, len(records))

	r.log.Info("套件执行完成",
		zap.Int("total", len(records)),
		zap.Int("passed", passCount),
		zap.Int("pins_tested", len(testedList)),
		zap.Int("pins_untested", len(untested)),
	)
}

// AllPassed 是否全部非跳过项通过
func AllPassed(records []Record) bool {
	for _, rec := range records {
		st := rec.Result.Status
		if st == StatusPass || st == StatusNA || strings.HasPrefix(st, "SKIPPED") {
			continue
		}
		return false
	}
	return true
}
