package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

type JobHandler struct {
	jobs ports.JobService
}

func NewJobHandler(jobs ports.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type createJobRequest struct {
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description"`
	BudgetUSDC     float64  `json:"budget_usdc" validate:"gte=0"`
	RequiredSkills []string `json:"required_skills"`
}

// Create posts a new job owned by the caller. Client role only.
//
// @Summary      Post a job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createJobRequest  true  "Job details"
// @Success      200   {object}  domain.Job
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/jobs [post]
func (h *JobHandler) Create(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job, err := h.jobs.CreateJob(c.Request().Context(), ports.CreateJobInput{
		ClientID:       userID,
		Title:          req.Title,
		Description:    req.Description,
		BudgetUSDC:     req.BudgetUSDC,
		RequiredSkills: req.RequiredSkills,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// List returns jobs, optionally filtered by status or restricted to
// the caller's own postings via ?mine=true.
//
// @Summary      List jobs
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        mine    query     bool    false  "Only jobs the caller posted"
// @Success      200     {array}   domain.Job
// @Router       /api/jobs [get]
func (h *JobHandler) List(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	filter := ports.ListJobsFilter{Status: c.QueryParam("status")}
	if c.QueryParam("mine") == "true" {
		filter.ClientID = userID
	}

	jobs, err := h.jobs.ListJobs(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if jobs == nil {
		jobs = []*domain.Job{}
	}
	return c.JSON(http.StatusOK, jobs)
}

// Get returns one job snapshot.
//
// @Summary      Get a job
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  domain.Job
// @Failure      404  {object}  map[string]string
// @Router       /api/jobs/{id} [get]
func (h *JobHandler) Get(c echo.Context) error {
	if _, _, err := ctxIdentity(c); err != nil {
		return err
	}

	job, err := h.jobs.GetJob(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

type assignRequest struct {
	FreelancerID string `json:"freelancer_id" validate:"required"`
}

// Assign binds a freelancer to the caller's open job.
//
// @Summary      Assign a freelancer
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Job id"
// @Param        body  body      assignRequest  true  "Freelancer"
// @Success      200   {object}  domain.Job
// @Failure      422   {object}  map[string]string
// @Router       /api/jobs/{id}/assign [post]
func (h *JobHandler) Assign(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job, err := h.jobs.Assign(c.Request().Context(), c.Param("id"), req.FreelancerID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// Fund confirms escrow holds the budget and marks the job funded.
//
// @Summary      Fund a job
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  domain.Job
// @Failure      422  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/jobs/{id}/fund [post]
func (h *JobHandler) Fund(c echo.Context) error {
	return h.transition(c, h.jobs.Fund)
}

// Start marks a funded job in progress. Assigned freelancer only.
//
// @Summary      Start work
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  domain.Job
// @Failure      422  {object}  map[string]string
// @Router       /api/jobs/{id}/start [post]
func (h *JobHandler) Start(c echo.Context) error {
	return h.transition(c, h.jobs.Start)
}

// Submit marks the work delivered. Assigned freelancer only.
//
// @Summary      Submit work
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  domain.Job
// @Failure      422  {object}  map[string]string
// @Router       /api/jobs/{id}/submit [post]
func (h *JobHandler) Submit(c echo.Context) error {
	return h.transition(c, h.jobs.Submit)
}

// Accept approves submitted work and releases escrow to the freelancer.
//
// @Summary      Accept work
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job id"
// @Success      200  {object}  domain.Job
// @Failure      422  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/jobs/{id}/accept [post]
func (h *JobHandler) Accept(c echo.Context) error {
	return h.transition(c, h.jobs.Accept)
}

func (h *JobHandler) transition(c echo.Context, op func(ctx context.Context, jobID, actorID string) (*domain.Job, error)) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	job, err := op(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

type disputeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Dispute opens a dispute on the job and freezes its lifecycle until
// arbitration.
//
// @Summary      Raise a dispute
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Job id"
// @Param        body  body      disputeRequest  true  "Dispute reason"
// @Success      200   {object}  domain.Dispute
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/jobs/{id}/dispute [post]
func (h *JobHandler) Dispute(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req disputeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	dispute, err := h.jobs.RaiseDispute(c.Request().Context(), c.Param("id"), userID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dispute)
}

type arbitrateRequest struct {
	Resolution string `json:"resolution" validate:"required,oneof=refund_client release_freelancer"`
}

// Arbitrate records the verdict, settles escrow, and closes the job.
// Arbitrator role only; the decision is final.
//
// @Summary      Arbitrate a dispute
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Job id"
// @Param        body  body      arbitrateRequest  true  "Verdict"
// @Success      200   {object}  domain.Job
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/jobs/{id}/arbitrate [post]
func (h *JobHandler) Arbitrate(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req arbitrateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job, err := h.jobs.Arbitrate(c.Request().Context(), c.Param("id"), userID, domain.DisputeResolution(req.Resolution))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}
