package repository

import (
	"encoding/hex"

	"gorm.io/gorm"

	"github.com/wfunc/boardtest/internal/errors"
	"github.com/wfunc/boardtest/internal/models"
)

// SerialTraceRepository 串行链路收发记录仓储
type SerialTraceRepository struct {
	*BaseRepo
}

// NewSerialTraceRepository 创建串行记录仓储
func NewSerialTraceRepository(db *gorm.DB) *SerialTraceRepository {
	return &SerialTraceRepository{BaseRepo: NewBaseRepo(db)}
}

// Record 记录一次收发
func (r *SerialTraceRepository) Record(runID uint, direction string, data []byte) error {
	trace := &models.SerialTrace{
		TestRunID:  runID,
		Direction:  direction,
		RawData:    string(data),
		HexData:    hex.EncodeToString(data),
		BytesCount: len(data),
	}
	if err := r.db.Create(trace).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert, "保存串行记录失败")
	}
	return nil
}

// ListByRun 查询某次执行的全部收发记录
func (r *SerialTraceRepository) ListByRun(runID uint) ([]*models.SerialTrace, error) {
	var traces []*models.SerialTrace
	err := r.db.Where("test_run_id = ?", runID).Order("created_at ASC").Find(&traces).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return traces, nil
}

// Prune 清理早于保留窗口的记录
func (r *SerialTraceRepository) Prune(keep int) error {
	// 保留最近keep条，其余删除
	sub := r.db.Model(&models.SerialTrace{}).
		Select("id").Order("created_at DESC").Limit(keep)
	err := r.db.Where("id NOT IN (?)", sub).Delete(&models.SerialTrace{}).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseQuery, "清理串行记录失败")
	}
	return nil
}
