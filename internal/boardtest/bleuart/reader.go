package bleuart

import (
	"bytes"
	"time"

	"github.com/wfunc/boardtest/internal/errors"
	"github.com/wfunc/boardtest/internal/hal"
)

// 内存与IO上界，保护驱动缓冲不被持续流写爆
const (
	maxStoreRunes = 64  // 结果摘要保留的最大字符数
	maxLineBytes  = 128 // 单条消息累积上限
	chunkMax      = 32  // 单次读取上限
)

const (
	readPollSleep  = 10 * time.Millisecond
	flushPollSleep = 3 * time.Millisecond
)

// ReadMessage 在超时内读取一条消息。完成条件有三种：
//   - 缓冲出现\n或\r（正常完成，返回去除首尾空白的内容）
//   - 缓冲达到128字节上限（截断完成，不算失败）
//   - 缓冲非空且距最后一个字节超过idleGap（空闲完成，
//     处理不发显式结束符的对端）
//
// 超时前没有可返回的缓冲则返回ErrSerialTimeout，
// 与零长度成功读取严格区分。
func ReadMessage(link hal.SerialLink, timeout, idleGap time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 0, chunkMax)
	var lastRx time.Time

	for time.Now().Before(deadline) {
		n := link.BytesAvailable()
		if n > 0 {
			if n > chunkMax {
				n = chunkMax
			}
			chunk, err := link.Read(n)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrSerialPortRead)
			}
			if len(chunk) > 0 {
				buf = append(buf, chunk...)
				// 达到上限立即返回已有内容
				if len(buf) >= maxLineBytes {
					return bytes.TrimSpace(buf[:maxLineBytes]), nil
				}
				lastRx = time.Now()
				if bytes.ContainsRune(buf, '\n') || bytes.ContainsRune(buf, '\r') {
					return bytes.TrimSpace(buf), nil
				}
			}
		} else {
			// 无新字节：缓冲非空且空闲超过idleGap视为消息结束
			if len(buf) > 0 && !lastRx.IsZero() && time.Since(lastRx) > idleGap {
				return bytes.TrimSpace(buf), nil
			}
		}
		time.Sleep(readPollSleep)
	}

	return nil, errors.Newf(errors.ErrSerialTimeout, "等待消息超时 (%v)", timeout)
}

// FlushRx 在时间窗内排空接收缓冲，保持驱动状态干净。
// 尽力而为，读取失败即停止。
func FlushRx(link hal.SerialLink, maxWait time.Duration) {
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		n := link.BytesAvailable()
		if n == 0 {
			break
		}
		if n > chunkMax {
			n = chunkMax
		}
		if _, err := link.Read(n); err != nil {
			break
		}
		time.Sleep(flushPollSleep)
	}
}
