package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tempoview/tempoview/internal/connectors"
	"github.com/tempoview/tempoview/internal/dbservice"
	"github.com/tempoview/tempoview/internal/forms"
	"github.com/tempoview/tempoview/internal/query"
	"github.com/tempoview/tempoview/internal/store"
	apperrors "github.com/tempoview/tempoview/pkg/errors"
	"github.com/tempoview/tempoview/pkg/response"
)

type connectionHandler struct {
	store    *store.Store
	services *dbservice.Factory
}

func registerConnectionRoutes(api *gin.RouterGroup, h *connectionHandler) {
	group := api.Group("/connections")
	{
		group.GET("", h.list)
		group.POST("", h.create)
		group.POST("/test", h.test)
		group.GET("/:id", h.get)
		group.DELETE("/:id", h.delete)
		group.GET("/:id/status", h.status)
		group.GET("/:id/databases", h.databases)
		group.GET("/:id/measurements", h.measurements)
		group.GET("/:id/fields", h.fields)
		group.GET("/:id/tags", h.tags)
		group.POST("/:id/query", h.query)
		group.POST("/:id/query/validate", h.validateQuery)
		group.POST("/:id/query/format", h.formatQuery)
	}
}

// connectionRequest carries form state for create and test operations.
type connectionRequest struct {
	DBType string         `json:"dbType" binding:"required"`
	Form   forms.FormData `json:"form" binding:"required"`
}

func (h *connectionHandler) list(c *gin.Context) {
	rows, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	if page <= 0 {
		response.Success(c, http.StatusOK, rows)
		return
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage <= 0 {
		perPage = 20
	}

	total := len(rows)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	response.SuccessWithMeta(c, http.StatusOK, rows[start:end], &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

func (h *connectionHandler) create(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("dbType and form are required"))
		return
	}

	result := h.services.Get(req.DBType).CreateConnection(c.Request.Context(), req.Form)
	if !result.Success {
		c.JSON(http.StatusBadRequest, response.Response{
			Success: false,
			Data:    result,
			Error: &response.ErrorInfo{
				Code:    apperrors.ErrConnectionInvalid.Code,
				Message: result.Error,
			},
		})
		return
	}
	response.Success(c, http.StatusCreated, result)
}

func (h *connectionHandler) test(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("dbType and form are required"))
		return
	}

	// Failure is a payload here, never an HTTP error.
	result := h.services.Get(req.DBType).TestConnection(c.Request.Context(), req.Form)
	response.Success(c, http.StatusOK, result)
}

func (h *connectionHandler) get(c *gin.Context) {
	cfg, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	// Secrets never leave the store through the read API.
	cfg.Password = ""
	if cfg.V2Config != nil {
		cfg.V2Config.APIToken = ""
	}
	response.Success(c, http.StatusOK, cfg)
}

func (h *connectionHandler) delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *connectionHandler) status(c *gin.Context) {
	status, err := h.store.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": status})
}

// serviceFor resolves the stored connection's backend service. A nil return
// means the response has already been written.
func (h *connectionHandler) serviceFor(c *gin.Context) (*dbservice.DatabaseService, *connectors.ConnectionConfig) {
	cfg, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, nil
	}
	return h.services.Get(cfg.DBType), cfg
}

func (h *connectionHandler) databases(c *gin.Context) {
	svc, _ := h.serviceFor(c)
	if svc == nil {
		return
	}
	names, err := svc.GetDatabases(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.ErrQueryFailed.WithMessage(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, names)
}

func (h *connectionHandler) measurements(c *gin.Context) {
	svc, _ := h.serviceFor(c)
	if svc == nil {
		return
	}
	names, err := svc.GetTables(c.Request.Context(), c.Param("id"), c.Query("database"))
	if err != nil {
		response.Error(c, apperrors.ErrQueryFailed.WithMessage(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, names)
}

func (h *connectionHandler) fields(c *gin.Context) {
	svc, _ := h.serviceFor(c)
	if svc == nil {
		return
	}
	fields, err := svc.GetFields(c.Request.Context(), c.Param("id"), c.Query("database"), c.Query("measurement"))
	if err != nil {
		response.Error(c, apperrors.ErrQueryFailed.WithMessage(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, fields)
}

func (h *connectionHandler) tags(c *gin.Context) {
	svc, _ := h.serviceFor(c)
	if svc == nil {
		return
	}
	keys, err := svc.GetTagKeys(c.Request.Context(), c.Param("id"), c.Query("database"), c.Query("measurement"))
	if err != nil {
		response.Error(c, apperrors.ErrQueryFailed.WithMessage(err.Error()))
		return
	}
	response.Success(c, http.StatusOK, keys)
}

// query executes a statement and always answers 200 with a result payload;
// backend failures surface as Success=false inside the result, not as HTTP
// errors.
func (h *connectionHandler) query(c *gin.Context) {
	svc, _ := h.serviceFor(c)
	if svc == nil {
		return
	}

	var req query.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("query payload is malformed"))
		return
	}
	req.ConnectionID = c.Param("id")

	result := svc.ExecuteQuery(c.Request.Context(), req)
	response.Success(c, http.StatusOK, result)
}

// queryTextRequest carries a bare statement for validate/format tooling.
type queryTextRequest struct {
	Query string `json:"query" binding:"required"`
}

// validateQuery runs backend-assisted validation. A bridge failure is not an
// HTTP error; the payload carries a local verdict instead.
func (h *connectionHandler) validateQuery(c *gin.Context) {
	svc, _ := h.serviceFor(c)
	if svc == nil {
		return
	}

	var req queryTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("query is required"))
		return
	}

	verdict := svc.ValidateQuery(c.Request.Context(), c.Param("id"), req.Query)
	response.Success(c, http.StatusOK, verdict)
}

// formatQuery pretty-prints a statement through the bridge, returning the
// input unchanged when the backend cannot assist.
func (h *connectionHandler) formatQuery(c *gin.Context) {
	svc, _ := h.serviceFor(c)
	if svc == nil {
		return
	}

	var req queryTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("query is required"))
		return
	}

	outcome := svc.FormatQuery(c.Request.Context(), c.Param("id"), req.Query)
	response.Success(c, http.StatusOK, outcome)
}
