package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-autopilot/errors"
	"github.com/johnquangdev/meeting-autopilot/internal/adapter/dto/automation"
	"github.com/johnquangdev/meeting-autopilot/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-autopilot/pkg/trello"
)

const boardListsCacheTTL = 5 * time.Minute

// BoardListLister is the tracker board-metadata capability boundary
type BoardListLister interface {
	ListLists(ctx context.Context, boardID string) ([]trello.BoardList, error)
}

// Trello handles tracker metadata lookups used when composing a dispatch
// target
type Trello struct {
	lister BoardListLister
	store  *cache.MemoryStore
	logger *zap.Logger
}

// NewTrelloHandler creates a new tracker metadata handler
func NewTrelloHandler(lister BoardListLister, store *cache.MemoryStore, logger *zap.Logger) *Trello {
	return &Trello{
		lister: lister,
		store:  store,
		logger: logger,
	}
}

// ListBoardLists handles GET /trello/boards/:board_id/lists. Board metadata
// changes rarely, so results are cached briefly to spare the remote API.
func (h *Trello) ListBoardLists(c echo.Context) error {
	boardID := c.Param("board_id")
	if boardID == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_board_id",
			"message": "board_id is required",
		})
	}

	cacheKey := "trello:board_lists:" + boardID
	if h.store != nil {
		if cached, ok := h.store.Get(cacheKey); ok {
			if lists, ok := cached.([]trello.BoardList); ok {
				return HandleSuccess(h.logger, c, toBoardListsResponse(boardID, lists, true))
			}
		}
	}

	lists, err := h.lister.ListLists(c.Request().Context(), boardID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrTrackerFailed("list board lists", err))
	}

	if h.store != nil {
		h.store.Set(cacheKey, lists, boardListsCacheTTL)
	}

	return HandleSuccess(h.logger, c, toBoardListsResponse(boardID, lists, false))
}

func toBoardListsResponse(boardID string, lists []trello.BoardList, cached bool) automation.BoardListsResponse {
	resp := automation.BoardListsResponse{
		BoardID: boardID,
		Lists:   make([]automation.BoardListResponse, 0, len(lists)),
		Cached:  cached,
	}
	for _, l := range lists {
		resp.Lists = append(resp.Lists, automation.BoardListResponse{
			ID:   l.ID,
			Name: l.Name,
		})
	}
	return resp
}
