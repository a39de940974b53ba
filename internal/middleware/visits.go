package middleware

import (
	"strings"
	"time"

	"circuitbot/internal/visits"

	"github.com/gin-gonic/gin"
)

// VisitRecorder принимает записи о посещениях.
type VisitRecorder interface {
	RecordVisit(v visits.Visit)
}

// TrackVisits ставит каждый запрос в журнал посещений, не дожидаясь записи.
func TrackVisits(recorder VisitRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.Request.UserAgent()
		if userAgent == "" {
			userAgent = "unknown"
		}
		recorder.RecordVisit(visits.Visit{
			Timestamp: time.Now(),
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			IP:        visitorIP(c),
			UserAgent: userAgent,
		})
		c.Next()
	}
}

// visitorIP берет X-Forwarded-For как есть, иначе адрес соединения.
func visitorIP(c *gin.Context) string {
	if fwd := strings.TrimSpace(c.GetHeader("X-Forwarded-For")); fwd != "" {
		return fwd
	}
	return c.RemoteIP()
}
