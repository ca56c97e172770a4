package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tempoview/tempoview/internal/connectors"
	"github.com/tempoview/tempoview/internal/forms"
	apperrors "github.com/tempoview/tempoview/pkg/errors"
	"github.com/tempoview/tempoview/pkg/response"
)

func registerConnectorRoutes(api *gin.RouterGroup) {
	group := api.Group("/connectors")
	{
		group.GET("", listConnectors)
		group.GET("/:type/form", connectorForm)
		group.GET("/:type/defaults", connectorDefaults)
		group.POST("/:type/validate", connectorValidate)
	}
}

type connectorInfo struct {
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon"`
	DefaultPort int    `json:"defaultPort"`
}

// fieldDTO is one form field with its dynamic pieces (label, options,
// visibility) already resolved against the supplied form state.
type fieldDTO struct {
	Name         string         `json:"name"`
	Label        string         `json:"label"`
	Type         string         `json:"type"`
	Placeholder  string         `json:"placeholder,omitempty"`
	Required     bool           `json:"required"`
	DefaultValue any            `json:"defaultValue,omitempty"`
	Options      []forms.Option `json:"options,omitempty"`
	Description  string         `json:"description,omitempty"`
	Min          float64        `json:"min,omitempty"`
	Max          float64        `json:"max,omitempty"`
	Step         float64        `json:"step,omitempty"`
	Rows         int            `json:"rows,omitempty"`
	Disabled     bool           `json:"disabled"`
}

type sectionDTO struct {
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Fields      []fieldDTO `json:"fields"`
}

func listConnectors(c *gin.Context) {
	all := connectors.GetConnectorFactory().GetAll()
	catalog := make([]connectorInfo, 0, len(all))
	for _, conn := range all {
		catalog = append(catalog, connectorInfo{
			Type:        conn.Type(),
			DisplayName: conn.DisplayName(),
			Icon:        conn.Icon(),
			DefaultPort: conn.DefaultPort(),
		})
	}
	response.Success(c, http.StatusOK, catalog)
}

func lookupConnector(c *gin.Context) connectors.Connector {
	conn := connectors.GetConnectorFactory().Get(c.Param("type"))
	if conn == nil {
		response.Error(c, apperrors.ErrUnknownConnector)
		return nil
	}
	return conn
}

// connectorForm serializes the visible sections against form state supplied
// as query parameters, so the client never evaluates visibility itself.
func connectorForm(c *gin.Context) {
	conn := lookupConnector(c)
	if conn == nil {
		return
	}

	form := forms.FormData{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			form[key] = values[0]
		}
	}

	sections := conn.FormSections()
	out := make([]sectionDTO, 0, len(sections))
	for _, section := range sections {
		if !section.IsVisible(form) {
			continue
		}
		dto := sectionDTO{
			Name:        section.Name,
			Title:       section.Title,
			Description: section.Description,
		}
		for _, field := range section.Fields {
			if !field.IsVisible(form) {
				continue
			}
			dto.Fields = append(dto.Fields, fieldDTO{
				Name:         field.Name,
				Label:        field.ResolvedLabel(form),
				Type:         string(field.Type),
				Placeholder:  field.Placeholder,
				Required:     field.Required,
				DefaultValue: field.DefaultValue,
				Options:      field.ResolvedOptions(form),
				Description:  field.Description,
				Min:          field.Min,
				Max:          field.Max,
				Step:         field.Step,
				Rows:         field.Rows,
				Disabled:     field.Disabled != nil && field.Disabled(form),
			})
		}
		out = append(out, dto)
	}

	response.Success(c, http.StatusOK, out)
}

func connectorDefaults(c *gin.Context) {
	conn := lookupConnector(c)
	if conn == nil {
		return
	}
	response.Success(c, http.StatusOK, conn.DefaultConfig())
}

func connectorValidate(c *gin.Context) {
	conn := lookupConnector(c)
	if conn == nil {
		return
	}

	form := forms.FormData{}
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, apperrors.NewBadRequest("request body must be a form data object"))
		return
	}

	errs := conn.Validate(form)
	response.Success(c, http.StatusOK, gin.H{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}
