package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"selfattend/internal/attendance"
	"selfattend/internal/auth"
	"selfattend/internal/session"
)

const sessionKey = "session"

// Handler serves the attendance API for sessions held by a Manager.
type Handler struct {
	sessions   *session.Manager
	signingKey string
	issuer     string
	logger     *slog.Logger
}

func New(sessions *session.Manager, signingKey, issuer string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sessions: sessions, signingKey: signingKey, issuer: issuer, logger: logger}
}

// Register mounts the /v1 routes on r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/login", h.Login)

	authed := v1.Group("", auth.SessionAuth(h.signingKey, h.issuer), h.requireSession)
	authed.POST("/logout", h.Logout)
	authed.GET("/me", h.Me)
	authed.GET("/attendance", h.ListAttendance)
	authed.POST("/attendance/toggle", h.Toggle)
	authed.GET("/attendance/status", h.Status)
	authed.GET("/attendance/month", h.Month)
	authed.GET("/attendance/chart", h.Chart)
	authed.GET("/attendance/export", h.Export)
}

// ---------- Session ----------

type loginRequest struct {
	Credential  string `json:"credential"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Login begins a session from a provider credential or a ready identity.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := session.Identity{ID: req.ID, DisplayName: req.DisplayName}
	if req.Credential != "" {
		decoded, err := auth.DecodeIdentity(req.Credential)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			return
		}
		id = decoded
	}
	if id.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credential or id required"})
		return
	}

	sid, _, err := h.sessions.Begin(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, err := auth.Issue(id.ID, id.DisplayName, sid, h.issuer, h.signingKey, h.sessions.TTL())
	if err != nil {
		h.sessions.End(sid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	h.logger.Info("session started", slog.String("user_id", id.ID))
	c.JSON(http.StatusCreated, gin.H{
		"token":      tok.Value,
		"expires_at": tok.ExpiresAt.Unix(),
		"user":       id,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	h.sessions.End(claims.ID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	id, ok := current(c).Identity()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": id})
}

// requireSession resolves the token's session; attendance routes are unreachable without one.
func (h *Handler) requireSession(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	sc, ok := h.sessions.Get(claims.ID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}
	if id, ok := sc.Identity(); !ok || id.ID != claims.Subject {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session mismatch"})
		return
	}
	c.Set(sessionKey, sc)
	c.Next()
}

func current(c *gin.Context) *session.Context {
	return c.MustGet(sessionKey).(*session.Context)
}

// ---------- Attendance ----------

type recordResponse struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Display string `json:"display"`
}

func toResponse(l attendance.Ledger) []recordResponse {
	out := make([]recordResponse, len(l))
	for i, r := range l {
		out[i] = recordResponse{Date: r.Day().String(), Time: r.Time, Display: r.DisplayDate()}
	}
	return out
}

func (h *Handler) ListAttendance(c *gin.Context) {
	sc := current(c)
	l, err := sc.Records()
	if h.sessionErr(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records":    toResponse(l),
		"total_days": l.CountDistinctDays(),
	})
}

type toggleRequest struct {
	Date string `json:"date" binding:"required"`
}

// Toggle marks or unmarks a day. A future day is answered with outcome
// "rejected" and leaves the ledger alone.
func (h *Handler) Toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sc := current(c)
	date, err := attendance.ParseDate(req.Date, sc.Today().Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be yyyy-MM-dd"})
		return
	}

	outcome, err := sc.Toggle(c.Request.Context(), date)
	if errors.Is(err, session.ErrNoActiveSession) {
		h.sessionErr(c, err)
		return
	}
	persisted := err == nil
	if err != nil {
		id, _ := sc.Identity()
		h.logger.Error("attendance save failed", slog.String("user_id", id.ID), slog.String("error", err.Error()))
	}

	marked, _ := sc.IsMarked(date)
	total, _ := sc.TotalDays()
	c.JSON(http.StatusOK, gin.H{
		"date":       req.Date,
		"outcome":    outcome,
		"marked":     marked,
		"persisted":  persisted,
		"total_days": total,
	})
}

func (h *Handler) Status(c *gin.Context) {
	sc := current(c)
	date := sc.Today()
	if v := c.Query("date"); v != "" {
		parsed, err := attendance.ParseDate(v, date.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be yyyy-MM-dd"})
			return
		}
		date = parsed
	}
	marked, err := sc.IsMarked(date)
	if h.sessionErr(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":       attendance.DayOf(date).String(),
		"marked":     marked,
		"selectable": !attendance.DayOf(date).After(attendance.DayOf(sc.Today())),
	})
}

func (h *Handler) Month(c *gin.Context) {
	sc := current(c)
	ym, ok := monthQuery(c, sc.Today())
	if !ok {
		return
	}
	l, err := sc.Month(ym)
	if h.sessionErr(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":   ym.String(),
		"title":   ym.Title(),
		"records": toResponse(l),
		"count":   l.CountDistinctDays(),
	})
}

func (h *Handler) Chart(c *gin.Context) {
	sc := current(c)
	ym, ok := monthQuery(c, sc.Today())
	if !ok {
		return
	}
	chart, err := sc.Chart(ym)
	if h.sessionErr(c, err) {
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *Handler) Export(c *gin.Context) {
	csv, err := current(c).ExportCSV()
	if h.sessionErr(c, err) {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+attendance.ExportFilename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

func monthQuery(c *gin.Context, today time.Time) (attendance.YearMonth, bool) {
	v := c.Query("month")
	if v == "" {
		return attendance.YearMonthOf(today), true
	}
	ym, err := attendance.ParseYearMonth(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be yyyy-MM"})
		return attendance.YearMonth{}, false
	}
	return ym, true
}

// sessionErr answers 401 for ErrNoActiveSession and 500 for anything else.
func (h *Handler) sessionErr(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, session.ErrNoActiveSession) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return true
	}
	h.logger.Error("attendance request failed", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	return true
}
