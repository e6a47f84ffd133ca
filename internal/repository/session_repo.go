package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/fyerfyer/expert-QA-system/internal/database"
	"github.com/fyerfyer/expert-QA-system/internal/models"
)

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("record not found")

// SessionRepository 会话元数据仓储接口
type SessionRepository interface {
	// Create 创建会话记录
	Create(record *models.SessionRecord) error

	// GetByID 根据ID获取会话记录
	GetByID(id string) (*models.SessionRecord, error)

	// List 列出会话记录，按创建时间倒序，支持分页
	List(offset, limit int) ([]*models.SessionRecord, int64, error)

	// Delete 删除会话记录
	Delete(id string) error
}

// sessionRepository 基于GORM的会话仓储实现
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓储
// db为nil时使用全局数据库连接
func NewSessionRepository(db *gorm.DB) SessionRepository {
	if db == nil {
		db = database.DB
	}
	return &sessionRepository{db: db}
}

// Create 创建会话记录
func (r *sessionRepository) Create(record *models.SessionRecord) error {
	return r.db.Create(record).Error
}

// GetByID 根据ID获取会话记录
func (r *sessionRepository) GetByID(id string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	err := r.db.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List 列出会话记录
func (r *sessionRepository) List(offset, limit int) ([]*models.SessionRecord, int64, error) {
	var records []*models.SessionRecord
	var total int64

	if err := r.db.Model(&models.SessionRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("created_at DESC")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// Delete 删除会话记录
func (r *sessionRepository) Delete(id string) error {
	return r.db.Delete(&models.SessionRecord{}, "id = ?", id).Error
}
