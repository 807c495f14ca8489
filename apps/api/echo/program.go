package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/program"
)

type (
	programApi struct {
		service *program.Service
	}

	programCreateRequest struct {
		Title       string `json:"title" validate:"required"`
		Description string `json:"description"`
		IsLive      bool   `json:"is_live"`
	}

	enrollRequest struct {
		UserID int `json:"user_id" validate:"required"`
	}
)

func registerProgramAPI(g *echo.Group, svc *program.Service) {
	api := programApi{service: svc}

	pg := g.Group("/programs")
	pg.POST("", api.programCreate)
	pg.GET("/:id", api.programRetrieve)
	pg.POST("/:id/enrollments", api.programEnroll)
	pg.DELETE("/:id/enrollments/:userID", api.programUnenroll)
}

func (api *programApi) programCreate(ctx echo.Context) error {
	data := new(programCreateRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.Title = core.CleanString(data.Title)
	if err := core.Validate.Struct(data); err != nil {
		return err
	}

	prog, err := api.service.Create(ctx.Request().Context(), program.Program{
		Title:       data.Title,
		Description: data.Description,
		IsLive:      data.IsLive,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, prog)
}

func (api *programApi) programRetrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	prog, err := api.service.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *programApi) programEnroll(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	data := new(enrollRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}

	enr, err := api.service.Enroll(ctx.Request().Context(), data.UserID, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *programApi) programUnenroll(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	userID, err := strconv.Atoi(ctx.Param("userID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := api.service.Unenroll(ctx.Request().Context(), userID, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
