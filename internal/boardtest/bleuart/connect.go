package bleuart

import (
	"bytes"
	"time"

	"github.com/wfunc/boardtest/internal/hal"
)

// 常见BLE串口模块的连接指示（HM-10、BK、ESP-AT等）
var connectTokens = [][]byte{
	[]byte("OK+CONN"),
	[]byte("CONNECTED"),
	[]byte("CONNECT OK"),
	[]byte("LINK CONNECT"),
	[]byte("BT CONNECTED"),
	[]byte("BLE CONNECTED"),
}

var stateQuery = []byte("AT+STATE?\r\n")

// 主动查询上限，限制总探测流量与超时长短无关
const maxStateQueries = 10

const (
	connectPollSleep = 20 * time.Millisecond
	minQueryPeriod   = 100 * time.Millisecond
)

// tokenIn 返回缓冲中命中的第一个连接指示，未命中返回nil
func tokenIn(buf []byte) []byte {
	for _, tok := range connectTokens {
		if bytes.Contains(buf, tok) {
			return tok
		}
	}
	return nil
}

// WaitForConnection 等待连接指示。
//   - activeQuery开启时，按节奏最多发送10次状态查询，
//     写入失败忽略（尽力而为）
//   - 命中已知指示返回(true, 指示文本)；指示匹配优先
//   - 透传数据模式下模块不会发任何指示，收到任意字节即
//     视为链路已通，返回(true, "RX ACTIVITY")——这是有意的
//     策略：无握手保证的传输上，有流量即是连接证据
//
// 超时内始终无字节返回(false, "")。
func WaitForConnection(link hal.SerialLink, timeout time.Duration, activeQuery bool, queryPeriod time.Duration) (bool, string) {
	deadline := time.Now().Add(timeout)
	var lastQuery time.Time
	queriesSent := 0
	buf := make([]byte, 0, chunkMax)

	period := queryPeriod
	if period < minQueryPeriod {
		period = minQueryPeriod
	}

	for time.Now().Before(deadline) {
		if activeQuery && queriesSent < maxStateQueries &&
			(lastQuery.IsZero() || time.Since(lastQuery) >= period) {
			_, _ = link.Write(stateQuery)
			lastQuery = time.Now()
			queriesSent++
		}

		n := link.BytesAvailable()
		if n > 0 {
			if n > chunkMax {
				n = chunkMax
			}
			chunk, err := link.Read(n)
			if err == nil && len(chunk) > 0 {
				buf = append(buf, chunk...)
				if tok := tokenIn(buf); tok != nil {
					return true, string(tok)
				}
				return true, "RX ACTIVITY"
			}
		}
		time.Sleep(connectPollSleep)
	}

	return false, ""
}
