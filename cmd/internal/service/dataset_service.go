package service

import (
	"io"
	"os"
	"path/filepath"

	"cnpjsaneador/cmd/internal/contract"
	"cnpjsaneador/cmd/internal/domain/entity"
	"cnpjsaneador/cmd/internal/infrastructure/spreadsheet"
	"cnpjsaneador/cmd/internal/utils"
	"cnpjsaneador/cmd/internal/utils/apierror"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

type DatasetRepository interface {
	Save(dataset *entity.Dataset) error
	FindByID(id string) (*entity.Dataset, error)
	FindAll() ([]*entity.Dataset, error)
}

type DatasetService struct {
	DatasetRepo DatasetRepository
	UploadsDir  string
	Logger      *log.Logger
}

func NewDatasetService(repo DatasetRepository, uploadsDir string, logger *log.Logger) *DatasetService {
	return &DatasetService{
		DatasetRepo: repo,
		UploadsDir:  uploadsDir,
		Logger:      logger,
	}
}

// SaveUpload stores an uploaded dataset under a UUID-derived name,
// registers it and returns its discovered column names. Unreadable
// uploads are rejected and removed again.
func (s *DatasetService) SaveUpload(originalName string, src io.Reader) (*contract.DatasetResponse, apierror.ErrorResponse) {
	ext, ok := utils.CheckFileExt(originalName, contract.ValidDatasetFileTypes)
	if !ok {
		return nil, apierror.UnsupportedFileError
	}

	id := uuid.NewString()
	storedPath := filepath.Join(s.UploadsDir, id+ext)

	if apierr := s.writeFile(storedPath, src); apierr != nil {
		return nil, apierr
	}

	columns, err := spreadsheet.ReadColumns(storedPath)
	if err != nil {
		_ = os.Remove(storedPath)
		s.Logger.Warnf("rejected upload %s: %v", originalName, err)
		return nil, apierror.NewSimple(400, "Dataset is not a readable CSV file")
	}

	dataset := &entity.Dataset{
		ID:           id,
		OriginalName: originalName,
		StoredPath:   storedPath,
		UploadedAt:   utils.NowUTC(),
	}
	if err := s.DatasetRepo.Save(dataset); err != nil {
		_ = os.Remove(storedPath)
		s.Logger.Errorf("failed to register dataset %s: %v", originalName, err)
		return nil, apierror.InternalServerError
	}

	resp := toDatasetResponse(dataset)
	resp.Columns = columns
	return resp, nil
}

func (s *DatasetService) writeFile(path string, src io.Reader) apierror.ErrorResponse {
	dst, err := os.Create(path)
	if err != nil {
		s.Logger.Errorf("failed to create upload file %s: %v", path, err)
		return apierror.InternalServerError
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		s.Logger.Errorf("failed to store upload file %s: %v", path, err)
		return apierror.InternalServerError
	}
	return nil
}

// GetDataset returns the dataset detail with its current column names,
// re-read from the stored file.
func (s *DatasetService) GetDataset(id string) (*contract.DatasetResponse, apierror.ErrorResponse) {
	dataset, err := s.DatasetRepo.FindByID(id)
	if err != nil {
		s.Logger.Errorf("failed to find dataset %s: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if dataset == nil {
		return nil, apierror.DatasetNotFoundError
	}

	table, err := spreadsheet.Load(dataset.StoredPath)
	if err != nil {
		s.Logger.Errorf("failed to read dataset %s: %v", dataset.StoredPath, err)
		return nil, apierror.InternalServerError
	}

	resp := toDatasetResponse(dataset)
	resp.Columns = table.Columns()
	resp.RowCount = table.Len()
	return resp, nil
}

func (s *DatasetService) ListDatasets() ([]*contract.DatasetResponse, apierror.ErrorResponse) {
	datasets, err := s.DatasetRepo.FindAll()
	if err != nil {
		s.Logger.Errorf("failed to list datasets: %v", err)
		return nil, apierror.InternalServerError
	}

	responses := make([]*contract.DatasetResponse, len(datasets))
	for i, dataset := range datasets {
		responses[i] = toDatasetResponse(dataset)
	}
	return responses, nil
}

func toDatasetResponse(d *entity.Dataset) *contract.DatasetResponse {
	return &contract.DatasetResponse{
		ID:           d.ID,
		OriginalName: d.OriginalName,
		UploadedAt:   utils.FormatEpoch(d.UploadedAt),
	}
}
