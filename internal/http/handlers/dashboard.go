package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/saarthak-backend/internal/http/response"
	"github.com/yungbote/saarthak-backend/internal/services"
)

type DashboardHandler struct {
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/admin/dashboard
func (dh *DashboardHandler) Stats(c *gin.Context) {
	stats, err := dh.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}
