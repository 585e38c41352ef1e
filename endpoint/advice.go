package endpoint

import (
	"github.com/ariebrainware/ai-maama/advisory"
	"github.com/ariebrainware/ai-maama/util"
	"github.com/gin-gonic/gin"
)

type adviceResponse struct {
	RiskLevel string        `json:"riskLevel"`
	Tier      advisory.Tier `json:"tier"`
	Advice    string        `json:"advice"`
}

// GetAdvice godoc
// @Summary      Clinical guidance for a risk level
// @Tags         Advisory
// @Produce      json
// @Param        riskLevel query string true "Risk level, e.g. High"
// @Success      200 {object} util.APIResponse "Advice"
// @Router       /advice [get]
func GetAdvice(c *gin.Context) {
	level := c.Query("riskLevel")
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Advice",
		Data: adviceResponse{
			RiskLevel: level,
			Tier:      advisory.TierOf(level),
			Advice:    advisory.AdviseFor(level),
		},
	})
}
