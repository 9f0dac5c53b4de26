package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

type ProfileHandler struct {
	identity ports.IdentityService
}

func NewProfileHandler(identity ports.IdentityService) *ProfileHandler {
	return &ProfileHandler{identity: identity}
}

type updateProfileRequest struct {
	Bio           *string  `json:"bio"`
	Skills        []string `json:"skills"`
	PortfolioLink *string  `json:"portfolio_link"`
	GithubLink    *string  `json:"github_link"`
}

type updateProfileResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

// Get returns a user's public profile.
//
// @Summary      Get a user profile
// @Tags         profile
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /api/profile/{id} [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	user, err := h.identity.Resolve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update applies the provided profile fields to the caller's account.
// Absent fields are left untouched.
//
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  updateProfileResponse
// @Failure      401   {object}  map[string]string
// @Router       /api/profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.identity.UpdateProfile(c.Request().Context(), userID, ports.ProfileUpdate{
		Bio:           req.Bio,
		Skills:        req.Skills,
		PortfolioLink: req.PortfolioLink,
		GithubLink:    req.GithubLink,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updateProfileResponse{Success: true, User: user})
}
