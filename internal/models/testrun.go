package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// JSONData 用于存储JSON格式的数据
type JSONData map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSONData) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONData) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		strVal, ok := value.(string)
		if !ok {
			return nil
		}
		bytes = []byte(strVal)
	}
	return json.Unmarshal(bytes, j)
}

// StringList 逗号分隔存储的字符串列表
type StringList []string

// Value 实现 driver.Valuer 接口
func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}
	return strings.Join(s, ","), nil
}

// Scan 实现 sql.Scanner 接口
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var str string
	switch v := value.(type) {
	case []byte:
		str = string(v)
	case string:
		str = v
	default:
		return nil
	}
	if str == "" {
		*s = nil
		return nil
	}
	*s = strings.Split(str, ",")
	return nil
}

// TestRun 一次完整套件执行
type TestRun struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"index;not null" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RunID     string `gorm:"type:varchar(36);uniqueIndex;not null" json:"run_id"` // 执行唯一标识 (UUID)
	BoardName string `gorm:"type:varchar(100);index;not null" json:"board_name"`  // 被测板名
	Total     int    `gorm:"default:0" json:"total"`                              // 测试项总数
	Passed    int    `gorm:"default:0" json:"passed"`                             // 通过数
	AllPassed bool   `gorm:"index;default:false" json:"all_passed"`               // 整体结论

	Results []TestResult `gorm:"foreignKey:TestRunID" json:"results,omitempty"`
}

// TableName 指定表名
func (TestRun) TableName() string {
	return "test_runs"
}

// TestResult 单项测试结果
type TestResult struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"index;not null" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TestRunID uint       `gorm:"index;not null" json:"test_run_id"`
	TestName  string     `gorm:"type:varchar(100);index;not null" json:"test_name"` // 测试项名
	Status    string     `gorm:"type:varchar(255);not null" json:"status"`          // PASS/FAILED(...)等
	Pins      StringList `gorm:"type:text" json:"pins,omitempty"`                   // 覆盖到的引脚
	Info      JSONData   `gorm:"type:json" json:"info,omitempty"`                   // 附加信息
	Duration  int64      `gorm:"default:0" json:"duration_ms"`                      // 耗时(毫秒)
}

// TableName 指定表名
func (TestResult) TableName() string {
	return "test_results"
}

// SerialTrace 串行链路收发记录（排查回显问题用）
type SerialTrace struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`

	TestRunID  uint   `gorm:"index" json:"test_run_id"`
	Direction  string `gorm:"type:varchar(10);index;not null" json:"direction"` // tx / rx
	RawData    string `gorm:"type:text" json:"raw_data,omitempty"`              // 原始数据 (ASCII)
	HexData    string `gorm:"type:text" json:"hex_data,omitempty"`              // 十六进制数据
	BytesCount int    `gorm:"default:0" json:"bytes_count"`                     // 字节数
}

// TableName 指定表名
func (SerialTrace) TableName() string {
	return "serial_traces"
}
