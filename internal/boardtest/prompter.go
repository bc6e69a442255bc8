package boardtest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wfunc/boardtest/internal/errors"
)

// Prompter 操作员交互。非交互模式下所有确认自动通过，
// 适用于CI和mock后端。
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	Interactive bool
}

// NewPrompter 创建标准输入输出上的交互器
func NewPrompter(interactive bool) *Prompter {
	return &Prompter{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		Interactive: interactive,
	}
}

// NewPrompterIO 创建指定流上的交互器（测试注入用）
func NewPrompterIO(in io.Reader, out io.Writer, interactive bool) *Prompter {
	return &Prompter{
		in:          bufio.NewReader(in),
		out:         out,
		Interactive: interactive,
	}
}

// Say 输出提示文本
func (p *Prompter) Say(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Confirm 请求y/n确认。非交互模式直接返回通过。
func (p *Prompter) Confirm(question string) (bool, error) {
	if !p.Interactive {
		return true, nil
	}

	fmt.Fprintf(p.out, "%s [y/n] ", question)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, errors.Wrap(err, errors.ErrOperatorTimeout, "读取操作员输入失败")
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// WaitEnter 等待操作员按回车。非交互模式立即返回。
func (p *Prompter) WaitEnter(message string) error {
	if !p.Interactive {
		return nil
	}

	fmt.Fprintf(p.out, "%s (按回车继续) ", message)
	_, err := p.in.ReadString('\n')
	if err != nil {
		return errors.Wrap(err, errors.ErrOperatorTimeout, "读取操作员输入失败")
	}
	return nil
}
