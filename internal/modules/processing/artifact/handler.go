package artifact

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyhub/core/internal/middleware"
	"github.com/studyhub/core/internal/pkg/pagination"
	"github.com/studyhub/core/internal/pkg/response"
	"github.com/studyhub/core/internal/pkg/taskqueue"
)

type Handler struct {
	orch  *Orchestrator
	tasks *TaskRunner
}

func NewHandler(orch *Orchestrator, tasks *TaskRunner) *Handler {
	return &Handler{orch: orch, tasks: tasks}
}

// RegisterRoutes mounts the artifact API on rg behind auth, which must
// authenticate the owner. enqueueGuards run only in front of task creation;
// synchronous generation is never de-duplicated.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth []gin.HandlerFunc, enqueueGuards ...gin.HandlerFunc) {
	docs := rg.Group("/documents", auth...)
	for _, kind := range Kinds {
		docs.POST("/:id/"+kind.Slug(), h.generate(kind))
		docs.GET("/:id/"+kind.Slug(), h.current(kind))
	}

	rg.Group("/artifacts", auth...).GET("", h.list)

	tasks := rg.Group("/generation/tasks", auth...)
	tasks.POST("", append(enqueueGuards, h.createTask)...)
	tasks.GET("/:id", h.getTask)
}

type generateBody struct {
	RawParameters
	ForceRegenerate bool `json:"forceRegenerate"`
}

// POST /documents/:id/<kind>  [auth]
func (h *Handler) generate(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body generateBody
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(c, err.Error())
			return
		}
		res, err := h.orch.Generate(c.Request.Context(), RawRequest{
			Kind:            string(kind),
			ResourceID:      c.Param("id"),
			OwnerID:         middleware.CurrentOwnerID(c),
			Parameters:      body.RawParameters,
			ForceRegenerate: body.ForceRegenerate,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		response.OK(c, res)
	}
}

// GET /documents/:id/<kind>  [auth]
func (h *Handler) current(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := h.orch.Current(c.Request.Context(), Key{
			Kind:       kind,
			ResourceID: c.Param("id"),
			OwnerID:    middleware.CurrentOwnerID(c),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		response.OK(c, a)
	}
}

// GET /artifacts?kind=&page=&size=  [auth]
func (h *Handler) list(c *gin.Context) {
	var kind Kind
	if raw := c.Query("kind"); raw != "" {
		k, ok := ParseKind(raw)
		if !ok {
			response.Invalid(c, "invalid query", []response.Violation{{Field: "kind", Message: "kind must be one of study_plan, flashcards, mind_map"}})
			return
		}
		kind = k
	}
	items, pag, err := h.orch.Store().List(c.Request.Context(), middleware.CurrentOwnerID(c), kind, pagination.FromContext(c))
	if err != nil {
		writeError(c, &PersistenceError{Err: err})
		return
	}
	response.Paged(c, items, pag)
}

// POST /generation/tasks  [auth]
func (h *Handler) createTask(c *gin.Context) {
	var raw RawRequest
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	raw.OwnerID = middleware.CurrentOwnerID(c)
	task, err := h.tasks.Enqueue(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, task)
}

// GET /generation/tasks/:id  [auth]
func (h *Handler) getTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"), middleware.CurrentOwnerID(c))
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			response.NotFoundMsg(c, "task not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, task)
}

func writeError(c *gin.Context, err error) {
	var (
		validationErr  *ValidationError
		ownershipErr   *OwnershipError
		persistenceErr *PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		violations := make([]response.Violation, 0, len(validationErr.Violations))
		for _, v := range validationErr.Violations {
			violations = append(violations, response.Violation{Field: v.Field, Message: v.Message})
		}
		response.Invalid(c, "invalid generation request", violations)
	case errors.As(err, &ownershipErr):
		response.NotFoundMsg(c, ownershipErr.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.As(err, &persistenceErr):
		response.Fail(c, http.StatusInternalServerError, response.CodePersistence, persistenceErr.Error())
	default:
		response.InternalError(c, err)
	}
}
