package repository

import (
	"errors"

	"cnpjsaneador/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultRunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *DefaultRunRepository {
	return &DefaultRunRepository{db: db}
}

func (r *DefaultRunRepository) FindByID(id int64) (*entity.Run, error) {
	var run entity.Run
	err := r.db.
		Where("id = ?", id).
		First(&run).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *DefaultRunRepository) FindAll() ([]*entity.Run, error) {
	var runs []*entity.Run
	err := r.db.
		Order("started_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *DefaultRunRepository) Save(run *entity.Run) error {
	return r.db.Save(run).Error
}

func (r *DefaultRunRepository) DeleteExpired(before int64) error {
	return r.db.
		Where("started_at < ? AND status <> ?", before, entity.RunRunning).
		Delete(&entity.Run{}).Error
}
