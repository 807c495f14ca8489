package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/umarmughal824/micromasters-sub002/core/discussions"
)

type channelApi struct {
	service *discussions.Service
}

func registerChannelAPI(g *echo.Group, svc *discussions.Service) {
	api := channelApi{service: svc}

	cg := g.Group("/channels")
	cg.POST("", api.channelCreate)
	cg.PUT("/:name/moderators/:userID", api.channelAddModerator)
	cg.DELETE("/:name/moderators/:userID", api.channelRemoveModerator)
}

func (api *channelApi) channelCreate(ctx echo.Context) error {
	data := new(discussions.NewChannel)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	ch, err := api.service.CreateChannel(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ch)
}

func (api *channelApi) channelAddModerator(ctx echo.Context) error {
	userID, err := strconv.Atoi(ctx.Param("userID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err := api.service.AddChannelModerator(ctx.Request().Context(), ctx.Param("name"), userID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *channelApi) channelRemoveModerator(ctx echo.Context) error {
	userID, err := strconv.Atoi(ctx.Param("userID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err := api.service.RemoveChannelModerator(ctx.Request().Context(), ctx.Param("name"), userID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
