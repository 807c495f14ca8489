package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/umarmughal824/micromasters-sub002/core/user"
)

type userApi struct {
	service *user.Service
}

func registerUserAPI(g *echo.Group, svc *user.Service) {
	api := userApi{service: svc}

	ug := g.Group("/users")
	ug.POST("", api.userCreate)
	ug.GET("/:id", api.userRetrieve)
	ug.POST("/:id/roles", api.userAssignRole)
}

func (api *userApi) userCreate(ctx echo.Context) error {
	data := new(user.NewUser)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	usr, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) userRetrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	usr, err := api.service.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) userAssignRole(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	data := new(user.NewRole)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.UserID = id

	role, err := api.service.AssignRole(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, role)
}
