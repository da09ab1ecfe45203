package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/t77yq/alert-dashboard/internal/apperr"
	"github.com/t77yq/alert-dashboard/internal/metrics"
	"github.com/t77yq/alert-dashboard/internal/model"
	"github.com/t77yq/alert-dashboard/internal/query"
	"github.com/t77yq/alert-dashboard/internal/validation"
)

// pageQuery slices a list response. Limit 0 returns every remaining alert.
type pageQuery struct {
	Offset int `form:"offset" validate:"gte=0"`
	Limit  int `form:"limit" validate:"gte=0,lte=1000"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.health.Check(c.Request.Context()))
}

// handleListAlerts serves GET /alerts
func (s *Server) handleListAlerts(c *gin.Context) {
	var raw query.RawFilter
	if err := c.ShouldBindQuery(&raw); err != nil {
		s.writeError(c, apperr.New(apperr.CodeBadRequest, "Invalid query parameters", err))
		return
	}

	var page pageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		s.writeError(c, apperr.New(apperr.CodeBadRequest, "offset and limit must be integers", err))
		return
	}
	if err := validation.Struct(page); err != nil {
		s.writeError(c, err)
		return
	}

	criteria, err := query.ParseFilter(raw)
	if err != nil {
		s.writeError(c, err)
		return
	}

	alerts := s.engine.List(criteria)
	metrics.IncQuery(metrics.QueryList)

	c.Header(totalCountHeader, strconv.Itoa(len(alerts)))
	c.JSON(http.StatusOK, paginate(alerts, page))
}

func paginate(alerts []model.Alert, page pageQuery) []model.Alert {
	if page.Offset >= len(alerts) {
		return []model.Alert{}
	}
	alerts = alerts[page.Offset:]
	if page.Limit > 0 && page.Limit < len(alerts) {
		alerts = alerts[:page.Limit]
	}
	return alerts
}

// handleSubjects serves GET /alerts/subjects
func (s *Server) handleSubjects(c *gin.Context) {
	subjects := s.engine.Subjects()
	metrics.IncQuery(metrics.QuerySubjects)
	c.JSON(http.StatusOK, subjects)
}

// handleMonthlyCounts serves GET /alerts/numbers-by-months[/:months]
func (s *Server) handleMonthlyCounts(c *gin.Context) {
	months := s.config.Query.DefaultMonths
	if raw := c.Param("months"); raw != "" {
		n, err := query.ParseMonths(raw, s.config.Query.MaxMonths)
		if err != nil {
			s.writeError(c, err)
			return
		}
		months = n
	}

	// subject is the singular form older dashboard clients send
	subjects, err := query.ParseSubjects(append(append([]string(nil), c.QueryArray("subjects")...), c.QueryArray("subject")...))
	if err != nil {
		s.writeError(c, err)
		return
	}

	buckets := s.engine.MonthlyCounts(months, subjects)
	metrics.IncQuery(metrics.QueryMonthlyCounts)
	c.JSON(http.StatusOK, buckets)
}

// handleGetAlert serves GET /alerts/:id
func (s *Server) handleGetAlert(c *gin.Context) {
	id := c.Param("id")
	alert, ok := s.engine.Get(id)
	metrics.IncQuery(metrics.QueryGet)
	if !ok {
		s.writeError(c, apperr.NotFound(fmt.Sprintf("Alert %s not found", id)))
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (s *Server) handleNoRoute(c *gin.Context) {
	s.writeError(c, apperr.NotFound(fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path)))
}
