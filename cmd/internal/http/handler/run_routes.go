package handler

import (
	"net/http"
	"strconv"

	"cnpjsaneador/cmd/internal/contract"
	"cnpjsaneador/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type RunService interface {
	StartRun(req *contract.StartRunRequest) (*contract.RunResponse, apierror.ErrorResponse)
	GetRun(id int64) (*contract.RunResponse, apierror.ErrorResponse)
	ListRuns() ([]*contract.RunResponse, apierror.ErrorResponse)
	RunEvents(id int64) ([]*contract.RunEventResponse, apierror.ErrorResponse)
}

type DefaultRunRoute struct {
	RunService RunService
}

func NewRunRoute(runService RunService) *DefaultRunRoute {
	return &DefaultRunRoute{RunService: runService}
}

func (r *DefaultRunRoute) StartRun(c echo.Context) error {
	req := new(contract.StartRunRequest)
	if err := c.Bind(req); err != nil {
		apierr := apierror.MalformedJSONError
		return c.JSON(apierr.Code(), apierr)
	}

	run, apierr := r.RunService.StartRun(req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusAccepted, run)
}

func (r *DefaultRunRoute) GetRun(c echo.Context) error {
	id, apierr := parseRunID(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	run, apierr := r.RunService.GetRun(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, run)
}

func (r *DefaultRunRoute) GetRuns(c echo.Context) error {
	runs, apierr := r.RunService.ListRuns()
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, runs)
}

func (r *DefaultRunRoute) GetRunEvents(c echo.Context) error {
	id, apierr := parseRunID(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	feed, apierr := r.RunService.RunEvents(id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, feed)
}

func parseRunID(c echo.Context) (int64, apierror.ErrorResponse) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.InvalidIDError
	}
	return id, nil
}
