package boardtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/boardtest/internal/hal"
)

// 测试结果状态构造
func TestResultStatus(t *testing.T) {
	assert.Equal(t, "FAILED (no user text received after connection)",
		FailedStatus("no user text received after connection"))
	assert.Equal(t, "FAIL (boom)", FailStatus("boom"))
	assert.Equal(t, "SKIPPED (pin missing)", SkippedStatus("pin missing"))

	assert.True(t, Pass("D0").Passed())
	assert.False(t, Failed("x").Passed())
	assert.Equal(t, []string{"D0", "D1"}, Pass("D0", "D1").Pins)
}

// 测试整体结论判定
func TestAllPassed(t *testing.T) {
	records := []Record{
		{Name: "a", Result: Pass()},
		{Name: "b", Result: Skipped("no pins")},
		{Name: "c", Result: NA()},
	}
	assert.True(t, AllPassed(records))

	records = append(records, Record{Name: "d", Result: Failed("broke")})
	assert.False(t, AllPassed(records))
}

// 测试运行器顺序执行与引脚汇总
func TestRunner(t *testing.T) {
	board := hal.NewMockBoard("devboard", "D0", "D1", "D2")
	var out strings.Builder
	p := NewPrompterIO(strings.NewReader(""), &out, false)

	var order []string
	r := NewRunner(board, p)
	r.Add("first", func(b hal.Board, p *Prompter) Result {
		order = append(order, "first")
		return Pass("D0")
	})
	r.Add("second", func(b hal.Board, p *Prompter) Result {
		order = append(order, "second")
		return Failed("broke", "D1")
	})

	records := r.Run()

	require.Len(t, records, 2)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, "PASS", records[0].Result.Status)

	text := out.String()
	assert.Contains(t, text, "Board acceptance test: devboard")
	assert.Contains(t, text, "Pins tested: D0, D1")
	assert.Contains(t, text, "Pins NOT tested: D2")
	assert.Contains(t, text, "1/2 tests passed")
}

// 测试持久化接收器被调用
func TestRunner_Sink(t *testing.T) {
	board := hal.NewMockBoard("devboard", "D0")
	p := NewPrompterIO(strings.NewReader(""), &strings.Builder{}, false)

	sink := &captureSink{}
	r := NewRunner(board, p)
	r.SetSink(sink)
	r.Add("only", func(b hal.Board, p *Prompter) Result { return Pass("D0") })

	r.Run()

	require.Len(t, sink.records, 1)
	assert.Equal(t, "devboard", sink.board)
	assert.Equal(t, "only", sink.records[0].Name)
}

type captureSink struct {
	board   string
	records []Record
}

func (s *captureSink) SaveRun(boardName string, records []Record) error {
	s.board = boardName
	s.records = records
	return nil
}

// 测试交互器确认解析
func TestPrompter_Confirm(t *testing.T) {
	t.Run("回答y通过", func(t *testing.T) {
		p := NewPrompterIO(strings.NewReader("y\n"), &strings.Builder{}, true)
		ok, err := p.Confirm("ok?")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("回答n拒绝", func(t *testing.T) {
		p := NewPrompterIO(strings.NewReader("n\n"), &strings.Builder{}, true)
		ok, err := p.Confirm("ok?")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("非交互自动通过", func(t *testing.T) {
		p := NewPrompterIO(strings.NewReader(""), &strings.Builder{}, false)
		ok, err := p.Confirm("ok?")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("输入流关闭报错", func(t *testing.T) {
		p := NewPrompterIO(strings.NewReader(""), &strings.Builder{}, true)
		_, err := p.Confirm("ok?")
		assert.Error(t, err)
	})
}
