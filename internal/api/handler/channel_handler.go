package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

type ChannelHandler struct {
	channels ports.ChannelService
}

func NewChannelHandler(channels ports.ChannelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

type createChannelRequest struct {
	Name        string `json:"name" validate:"required"`
	Skill       string `json:"skill" validate:"required"`
	Description string `json:"description"`
}

type createChannelResponse struct {
	Success   bool            `json:"success"`
	ChannelID string          `json:"channel_id"`
	Channel   *domain.Channel `json:"channel"`
}

type membershipResponse struct {
	Success     bool `json:"success"`
	MemberCount int  `json:"member_count"`
}

// Create opens a new skill channel with the caller as sole member.
//
// @Summary      Create a channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createChannelRequest  true  "Channel details"
// @Success      200   {object}  createChannelResponse
// @Failure      403   {object}  map[string]string
// @Router       /api/channels [post]
func (h *ChannelHandler) Create(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createChannelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ch, err := h.channels.CreateChannel(c.Request().Context(), ports.CreateChannelInput{
		OwnerID:     userID,
		Name:        req.Name,
		Skill:       req.Skill,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, createChannelResponse{Success: true, ChannelID: ch.ID, Channel: ch})
}

// List returns channels in creation order, optionally filtered by
// skill substring.
//
// @Summary      List channels
// @Tags         channels
// @Produce      json
// @Param        skill  query     string  false  "Case-insensitive skill substring"
// @Success      200    {array}   domain.Channel
// @Router       /api/channels [get]
func (h *ChannelHandler) List(c echo.Context) error {
	channels, err := h.channels.ListChannels(c.Request().Context(), c.QueryParam("skill"))
	if err != nil {
		return err
	}
	if channels == nil {
		channels = []*domain.Channel{}
	}
	return c.JSON(http.StatusOK, channels)
}

// Join adds the caller to the channel.
//
// @Summary      Join a channel
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Channel id"
// @Success      200  {object}  membershipResponse
// @Failure      409  {object}  map[string]string
// @Router       /api/channels/{id}/join [post]
func (h *ChannelHandler) Join(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	count, err := h.channels.Join(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, membershipResponse{Success: true, MemberCount: count})
}

// Leave removes the caller from the channel. Their open vote
// involvement is withdrawn or expired.
//
// @Summary      Leave a channel
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Channel id"
// @Success      200  {object}  membershipResponse
// @Failure      403  {object}  map[string]string
// @Router       /api/channels/{id}/leave [post]
func (h *ChannelHandler) Leave(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	count, err := h.channels.Leave(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, membershipResponse{Success: true, MemberCount: count})
}

type postMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// PostMessage appends a message to the channel log. Members only.
//
// @Summary      Post a message
// @Tags         channels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Channel id"
// @Param        body  body      postMessageRequest  true  "Message content"
// @Success      200   {object}  domain.Message
// @Failure      403   {object}  map[string]string
// @Router       /api/channels/{id}/messages [post]
func (h *ChannelHandler) PostMessage(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req postMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.channels.PostMessage(c.Request().Context(), c.Param("id"), userID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

// ListMessages returns the channel log in insertion order. Members only.
//
// @Summary      List channel messages
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Channel id"
// @Success      200  {array}   domain.Message
// @Failure      403  {object}  map[string]string
// @Router       /api/channels/{id}/messages [get]
func (h *ChannelHandler) ListMessages(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	msgs, err := h.channels.ListMessages(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return c.JSON(http.StatusOK, msgs)
}

type voteKickRequest struct {
	TargetUserID string `json:"target_user_id" validate:"required"`
	Reason       string `json:"reason"`
}

type voteKickResponse struct {
	Success  bool   `json:"success"`
	VoteID   string `json:"vote_id"`
	Votes    int    `json:"votes"`
	Required int    `json:"required"`
	Passed   bool   `json:"passed"`
}

// VoteKick casts the caller's vote against the target, opening a new
// vote when none is running. Reaching quorum removes the target
// immediately.
//
// @Summary      Vote to kick a member
// @Tags         channels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Channel id"
// @Param        body  body      voteKickRequest  true  "Kick target"
// @Success      200   {object}  voteKickResponse
// @Failure      409   {object}  map[string]string
// @Router       /api/channels/{id}/vote-kick [post]
func (h *ChannelHandler) VoteKick(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req voteKickRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	channelID := c.Param("id")

	result, err := h.channels.CastVote(ctx, channelID, userID, req.TargetUserID)
	if errors.Is(err, domain.ErrNoOpenVote) {
		result, err = h.channels.InitiateVoteKick(ctx, channelID, userID, req.TargetUserID, req.Reason)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, voteKickResponse{
		Success:  true,
		VoteID:   result.VoteID,
		Votes:    result.Votes,
		Required: result.Required,
		Passed:   result.Passed,
	})
}
