package handler

import (
	"github.com/gin-gonic/gin"

	"housingreview/internal/domain"
	"housingreview/internal/rules"
)

// RuleInfo describes a registered rule.
type RuleInfo struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Category rules.Category        `json:"category"`
	Contexts []domain.DocumentType `json:"contexts"`
}

// RuleHandler lists the registered eligibility rules.
type RuleHandler struct {
	registry *rules.Registry
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(registry *rules.Registry) *RuleHandler {
	return &RuleHandler{registry: registry}
}

// List handles GET /api/v1/rules
// @Summary List eligibility rules
// @Tags rules
// @Produce json
// @Success 200 {object} Response{data=[]RuleInfo}
// @Security BearerAuth
// @Router /rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	RespondOK(c, DescribeRules(h.registry))
}

// DescribeRules returns the registry contents in evaluation order.
func DescribeRules(registry *rules.Registry) []RuleInfo {
	all := registry.All()
	out := make([]RuleInfo, 0, len(all))
	for _, r := range all {
		contexts := r.Contexts()
		if contexts == nil {
			contexts = []domain.DocumentType{}
		}
		out = append(out, RuleInfo{
			ID:       r.ID(),
			Name:     r.Name(),
			Category: r.Category(),
			Contexts: contexts,
		})
	}
	return out
}
