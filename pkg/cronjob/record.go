package cronjob

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"k8s.io/klog/v2"

	"github.com/warden-lab/warden/dao/model"
	"github.com/warden-lab/warden/pkg/rollout"
)

const sweepJobName = "eligibility-sweep"

func (m *SweepManager) record(
	ctx context.Context,
	status model.SweepRecordStatus,
	message string,
	summaries []rollout.ProjectSummary,
) {
	record := model.SweepRecord{
		Name:        sweepJobName,
		ExecuteTime: time.Now(),
		Status:      status,
		Message:     message,
	}
	if summaries != nil {
		data, err := json.Marshal(summaries)
		if err != nil {
			klog.Errorf("SweepManager.record: marshal summary: %v", err)
		} else {
			record.Summary = datatypes.JSON(data)
		}
	}
	if err := m.db.WithContext(ctx).Create(&record).Error; err != nil {
		klog.Errorf("SweepManager.record: %v", err)
	}
}

// RecentRecords returns the latest sweep runs, newest first.
func (m *SweepManager) RecentRecords(ctx context.Context, limit int) ([]model.SweepRecord, error) {
	var records []model.SweepRecord
	err := m.db.WithContext(ctx).
		Order("execute_time DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
