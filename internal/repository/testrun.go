package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wfunc/boardtest/internal/boardtest"
	"github.com/wfunc/boardtest/internal/errors"
	"github.com/wfunc/boardtest/internal/logger"
	"github.com/wfunc/boardtest/internal/models"
)

// TestRunRepository 套件执行记录仓储
type TestRunRepository struct {
	*BaseRepo
}

// NewTestRunRepository 创建套件执行仓储
func NewTestRunRepository(db *gorm.DB) *TestRunRepository {
	return &TestRunRepository{BaseRepo: NewBaseRepo(db)}
}

// SaveRun 持久化一次完整套件执行，实现boardtest.ResultSink
func (r *TestRunRepository) SaveRun(boardName string, records []boardtest.Record) error {
	start := time.Now()

	run := &models.TestRun{
		RunID:     uuid.NewString(),
		BoardName: boardName,
		Total:     len(records),
		AllPassed: boardtest.AllPassed(records),
	}
	for _, rec := range records {
		if rec.Result.Passed() {
			run.Passed++
		}
		run.Results = append(run.Results, models.TestResult{
			TestName: rec.Name,
			Status:   rec.Result.Status,
			Pins:     models.StringList(rec.Result.Pins),
			Info:     models.JSONData(rec.Result.Info),
			Duration: rec.Duration.Milliseconds(),
		})
	}

	err := r.db.Create(run).Error
	logger.LogDatabaseOperation("insert", run.TableName(), time.Since(start), err)
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert, "保存套件执行记录失败")
	}
	return nil
}

// GetByRunID 按执行标识查询（含单项结果）
func (r *TestRunRepository) GetByRunID(runID string) (*models.TestRun, error) {
	var run models.TestRun
	err := r.db.Preload("Results").Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrNotFound, "执行记录不存在: "+runID)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &run, nil
}

// ListByBoard 按板名分页查询最近的执行
func (r *TestRunRepository) ListByBoard(boardName string, p *Pagination) ([]*models.TestRun, error) {
	var runs []*models.TestRun

	query := r.db.Model(&models.TestRun{}).Where("board_name = ?", boardName)
	if err := query.Count(&p.Total).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	err := query.Order("created_at DESC").Scopes(Paginate(p)).Find(&runs).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return runs, nil
}

// PassRate 统计某板近期的通过率
func (r *TestRunRepository) PassRate(boardName string, since time.Time) (float64, error) {
	var total, passed int64

	base := r.db.Model(&models.TestRun{}).
		Where("board_name = ? AND created_at >= ?", boardName, since)
	if err := base.Count(&total).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	if total == 0 {
		return 0, nil
	}
	if err := base.Where("all_passed = ?", true).Count(&passed).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return float64(passed) / float64(total), nil
}
