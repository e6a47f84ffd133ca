package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionRecord 会话元数据模型
// 记录每次上传建立的会话信息；检索索引本身只驻留内存，不落库
type SessionRecord struct {
	ID         string         `gorm:"primaryKey"`  // 会话ID，主键
	Folder     string         `gorm:"not null"`    // 会话文档目录
	FileCount  int            `gorm:"not null"`    // 上传的文件数
	ChunkCount int            `gorm:"not null"`    // 索引的分块数
	Files      datatypes.JSON `gorm:"type:json"`   // 上传的文件清单，JSON格式
	CreatedAt  time.Time      `gorm:"not null"`    // 创建时间
	UpdatedAt  time.Time      `gorm:"not null"`    // 更新时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (s *SessionRecord) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (s *SessionRecord) BeforeUpdate(tx *gorm.DB) (err error) {
	s.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (SessionRecord) TableName() string {
	return "qa_sessions"
}
