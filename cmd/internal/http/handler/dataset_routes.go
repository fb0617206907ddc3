package handler

import (
	"io"
	"net/http"
	"strings"

	"cnpjsaneador/cmd/internal/contract"
	"cnpjsaneador/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type DatasetService interface {
	SaveUpload(originalName string, src io.Reader) (*contract.DatasetResponse, apierror.ErrorResponse)
	GetDataset(id string) (*contract.DatasetResponse, apierror.ErrorResponse)
	ListDatasets() ([]*contract.DatasetResponse, apierror.ErrorResponse)
}

type DefaultDatasetRoute struct {
	DatasetService DatasetService
}

func NewDatasetRoute(datasetService DatasetService) *DefaultDatasetRoute {
	return &DefaultDatasetRoute{DatasetService: datasetService}
}

func (d *DefaultDatasetRoute) UploadDataset(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierr := apierror.MissingFileError
		return c.JSON(apierr.Code(), apierr)
	}

	if fileHeader.Size > contract.MaxDatasetFileSizeBytes {
		apierr := apierror.FileTooLargeError
		return c.JSON(apierr.Code(), apierr)
	}

	src, err := fileHeader.Open()
	if err != nil {
		apierr := apierror.InternalServerError
		return c.JSON(apierr.Code(), apierr)
	}
	defer src.Close()

	dataset, apierr := d.DatasetService.SaveUpload(fileHeader.Filename, src)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, dataset)
}

func (d *DefaultDatasetRoute) GetDataset(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		apierr := apierror.DatasetNotFoundError
		return c.JSON(apierr.Code(), apierr)
	}

	dataset, apierr := d.DatasetService.GetDataset(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, dataset)
}

func (d *DefaultDatasetRoute) GetDatasets(c echo.Context) error {
	datasets, apierr := d.DatasetService.ListDatasets()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, datasets)
}
