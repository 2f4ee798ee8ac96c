package handler

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logic"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/metrics"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CampaignHandler 活动接口
type CampaignHandler struct {
	factory    *contract.CampaignFactory
	metaLogic  *logic.CampaignMetaLogic
	eventLogic *logic.EventLogic
}

// NewCampaignHandler 创建活动接口
func NewCampaignHandler(db *gorm.DB, factory *contract.CampaignFactory) *CampaignHandler {
	return &CampaignHandler{
		factory:    factory,
		metaLogic:  logic.NewCampaignMetaLogic(db),
		eventLogic: logic.NewEventLogic(db),
	}
}

// createCampaignRequest 创建活动请求
type createCampaignRequest struct {
	ExternalID          string `json:"external_id"` // 可选，不传时服务端生成
	Title               string `json:"title" binding:"required"`
	Description         string `json:"description"`
	DetailedDescription string `json:"detailed_description"`
	ImageURL            string `json:"image_url"`
	Category            string `json:"category"`
	Location            string `json:"location"`
	WebsiteURL          string `json:"website_url"`
	GoalAmount          string `json:"goal_amount" binding:"required"` // wei，十进制字符串
	DurationDays        int64  `json:"duration_days" binding:"required"`
	CreatorAddress      string `json:"creator_address" binding:"required"`
	BeneficiaryAddress  string `json:"beneficiary_address" binding:"required"`
}

// CreateCampaign 创建活动：先建档元数据，再写入状态机，最后回填链上key。
// 携带相同 external_id 重试是安全的：已建档未上链的记录会继续走上链，
// 已上链的直接返回已有活动。
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.CreatorAddress) || !common.IsHexAddress(req.BeneficiaryAddress) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}
	goal, ok := new(big.Int).SetString(req.GoalAmount, 10)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的目标金额")
		return
	}

	// 建档。重试时复用已有未上链的记录
	var meta *model.CampaignMetaModel
	if req.ExternalID != "" {
		if existing, err := h.metaLogic.GetByUuid(req.ExternalID); err == nil {
			if existing.CampaignKey != "" {
				SuccessResponse(c, http.StatusOK, "活动已存在", gin.H{
					"uuid": existing.Uuid,
					"key":  existing.CampaignKey,
				})
				return
			}
			meta = existing
		}
	}
	if meta == nil {
		meta = &model.CampaignMetaModel{
			Uuid:                req.ExternalID,
			Title:               req.Title,
			Description:         req.Description,
			DetailedDescription: req.DetailedDescription,
			ImageURL:            req.ImageURL,
			Category:            req.Category,
			Location:            req.Location,
			WebsiteURL:          req.WebsiteURL,
			GoalAmount:          req.GoalAmount,
			CreatorAddress:      req.CreatorAddress,
			BeneficiaryAddress:  req.BeneficiaryAddress,
		}
		if err := h.metaLogic.CreateMeta(meta); err != nil {
			ErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	// 写入状态机
	key, err := h.factory.CreateCampaign(
		common.HexToAddress(req.CreatorAddress),
		common.HexToAddress(req.BeneficiaryAddress),
		req.Title,
		req.Description,
		goal,
		req.DurationDays,
		meta.Uuid,
	)
	if err != nil {
		// 元数据保留为待上链状态，调用方可携带相同 external_id 重试
		ContractErrorResponse(c, err)
		return
	}

	// 回填链上key。事件处理器会幂等兜底，这里失败不影响结果
	if err := h.metaLogic.LinkChainKey(meta.Uuid, key.Hex()); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.CampaignsCreated.Inc()

	campaign, _ := h.factory.GetCampaign(meta.Uuid)
	SuccessResponse(c, http.StatusCreated, "活动创建成功", gin.H{
		"uuid":     meta.Uuid,
		"key":      key.Hex(),
		"campaign": campaignView(campaign),
	})
}

// ListCampaigns 获取活动列表
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	status := c.Query("status")
	category := c.Query("category")
	creator := c.Query("creator")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	metas, total, err := h.metaLogic.ListMetas(status, category, creator, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"campaigns": metas,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCampaign 获取活动详情，合并元数据和状态机权威状态
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	uid := c.Param("uuid")

	meta, err := h.metaLogic.GetByUuid(uid)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	resp := gin.H{"meta": meta}
	if campaign, err := h.factory.GetCampaign(uid); err == nil {
		resp["chain"] = campaignView(campaign)
	}
	SuccessResponse(c, http.StatusOK, "", resp)
}

// editCampaignRequest 编辑活动请求
type editCampaignRequest struct {
	CallerAddress string  `json:"caller_address" binding:"required"`
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	ImageURL      *string `json:"image_url"`
	Category      *string `json:"category"`
	Location      *string `json:"location"`
	WebsiteURL    *string `json:"website_url"`
	AISummary     *string `json:"ai_summary"`
}

// EditCampaign 编辑活动。标题和描述走状态机（受创建者和终结约束），
// 纯展示字段只改元数据。
func (h *CampaignHandler) EditCampaign(c *gin.Context) {
	uid := c.Param("uuid")

	var req editCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsHexAddress(req.CallerAddress) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}

	if err := h.factory.EditCampaign(
		common.HexToAddress(req.CallerAddress), uid, req.Title, req.Description,
	); err != nil {
		ContractErrorResponse(c, err)
		return
	}

	// 展示字段
	updates := make(map[string]interface{})
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.WebsiteURL != nil {
		updates["website_url"] = *req.WebsiteURL
	}
	if req.AISummary != nil {
		updates["ai_summary"] = *req.AISummary
	}
	if len(updates) > 0 {
		if err := h.metaLogic.UpdateMeta(uid, updates); err != nil {
			ErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	SuccessResponse(c, http.StatusOK, "活动更新成功", nil)
}

// finalizeRequest 终结活动请求
type finalizeRequest struct {
	CallerAddress string `json:"caller_address" binding:"required"`
}

// FinalizeCampaign 终结活动
func (h *CampaignHandler) FinalizeCampaign(c *gin.Context) {
	uid := c.Param("uuid")

	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsHexAddress(req.CallerAddress) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}

	start := time.Now()
	err := h.factory.FinalizeCampaign(common.HexToAddress(req.CallerAddress), uid)
	if err != nil {
		metrics.RecordFinalizeDuration("rejected", time.Since(start).Seconds())
		ContractErrorResponse(c, err)
		return
	}

	campaign, _ := h.factory.GetCampaign(uid)
	status := "failed"
	if campaign != nil && !campaign.RefundEnabled {
		status = "success"
	}
	metrics.RecordFinalizeDuration(status, time.Since(start).Seconds())

	SuccessResponse(c, http.StatusOK, "活动已终结", gin.H{
		"campaign": campaignView(campaign),
	})
}

// GetUserCampaigns 获取某个创建者的活动key列表，按创建顺序
func (h *CampaignHandler) GetUserCampaigns(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}

	keys := h.factory.UserCampaigns(common.HexToAddress(address))
	hexKeys := make([]string, len(keys))
	for i, k := range keys {
		hexKeys[i] = k.Hex()
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"keys":  hexKeys,
		"count": len(hexKeys),
	})
}

// ListCampaignEvents 获取活动的事件流水，按序号倒序分页
func (h *CampaignHandler) ListCampaignEvents(c *gin.Context) {
	uid := c.Param("uuid")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	events, total, err := h.eventLogic.ListByCampaign(uid, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"events":    events,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetPlatformStats 平台统计
func (h *CampaignHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.metaLogic.GetPlatformStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	stats["chain_campaign_count"] = h.factory.CampaignCount()

	SuccessResponse(c, http.StatusOK, "", stats)
}

// campaignView 状态机活动的响应视图，金额转为十进制字符串
func campaignView(campaign *contract.Campaign) gin.H {
	if campaign == nil {
		return nil
	}
	return gin.H{
		"key":            campaign.Key.Hex(),
		"external_id":    campaign.ExternalID,
		"creator":        campaign.Creator.Hex(),
		"beneficiary":    campaign.Beneficiary.Hex(),
		"title":          campaign.Title,
		"description":    campaign.Description,
		"goal_amount":    campaign.GoalAmount.String(),
		"total_raised":   campaign.TotalRaised.String(),
		"balance":        campaign.Balance().String(),
		"deadline":       campaign.Deadline,
		"created_at":     campaign.CreatedAt,
		"finalized":      campaign.Finalized,
		"refund_enabled": campaign.RefundEnabled,
	}
}
