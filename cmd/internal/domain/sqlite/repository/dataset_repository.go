package repository

import (
	"errors"

	"cnpjsaneador/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultDatasetRepository struct {
	db *gorm.DB
}

func NewDatasetRepository(db *gorm.DB) *DefaultDatasetRepository {
	return &DefaultDatasetRepository{db: db}
}

func (r *DefaultDatasetRepository) FindByID(id string) (*entity.Dataset, error) {
	var dataset entity.Dataset
	err := r.db.
		Where("id = ?", id).
		First(&dataset).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (r *DefaultDatasetRepository) FindAll() ([]*entity.Dataset, error) {
	var datasets []*entity.Dataset
	err := r.db.
		Order("uploaded_at DESC").
		Find(&datasets).Error
	if err != nil {
		return nil, err
	}
	return datasets, nil
}

func (r *DefaultDatasetRepository) Save(dataset *entity.Dataset) error {
	return r.db.Save(dataset).Error
}
