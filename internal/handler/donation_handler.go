package handler

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logic"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DonationHandler 捐款与退款接口
type DonationHandler struct {
	factory       *contract.CampaignFactory
	donationLogic *logic.DonationRecordLogic
	refundLogic   *logic.RefundRecordLogic
}

// NewDonationHandler 创建捐款接口
func NewDonationHandler(db *gorm.DB, factory *contract.CampaignFactory) *DonationHandler {
	return &DonationHandler{
		factory:       factory,
		donationLogic: logic.NewDonationRecordLogic(db),
		refundLogic:   logic.NewRefundRecordLogic(db),
	}
}

// donateRequest 捐款请求
type donateRequest struct {
	DonorAddress string `json:"donor_address" binding:"required"`
	Amount       string `json:"amount" binding:"required"` // wei，十进制字符串
}

// Donate 捐款
func (h *DonationHandler) Donate(c *gin.Context) {
	uid := c.Param("uuid")

	var req donateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsHexAddress(req.DonorAddress) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "无效的捐款金额")
		return
	}

	donor := common.HexToAddress(req.DonorAddress)
	if err := h.factory.Donate(donor, uid, amount); err != nil {
		metrics.RecordDonation("rejected")
		ContractErrorResponse(c, err)
		return
	}
	metrics.RecordDonation("accepted")

	SuccessResponse(c, http.StatusOK, "捐款成功", gin.H{
		"contribution": h.factory.GetContribution(uid, donor).String(),
	})
}

// claimRefundRequest 退款请求
type claimRefundRequest struct {
	DonorAddress string `json:"donor_address" binding:"required"`
}

// ClaimRefund 领取退款
func (h *DonationHandler) ClaimRefund(c *gin.Context) {
	uid := c.Param("uuid")

	var req claimRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsHexAddress(req.DonorAddress) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}

	amount, err := h.factory.ClaimRefund(common.HexToAddress(req.DonorAddress), uid)
	if err != nil {
		metrics.RecordRefund("rejected")
		ContractErrorResponse(c, err)
		return
	}
	metrics.RecordRefund("accepted")

	SuccessResponse(c, http.StatusOK, "退款成功", gin.H{
		"amount": amount.String(),
	})
}

// GetContribution 查询某个捐款人的累计捐款
func (h *DonationHandler) GetContribution(c *gin.Context) {
	uid := c.Param("uuid")
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}

	amount := h.factory.GetContribution(uid, common.HexToAddress(address))
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"donor":        address,
		"contribution": amount.String(),
	})
}

// ListDonations 获取活动捐款记录
func (h *DonationHandler) ListDonations(c *gin.Context) {
	uid := c.Param("uuid")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.donationLogic.ListByCampaign(uid, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"donations": records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ListRefunds 获取活动退款记录
func (h *DonationHandler) ListRefunds(c *gin.Context) {
	uid := c.Param("uuid")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.refundLogic.ListByCampaign(uid, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"refunds":   records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetLeaderboard 获取捐款排行榜
func (h *DonationHandler) GetLeaderboard(c *gin.Context) {
	uid := c.Param("uuid")
	n, _ := strconv.Atoi(c.DefaultQuery("n", "10"))

	entries, err := h.factory.TopDonors(uid, n)
	if err != nil {
		ContractErrorResponse(c, err)
		return
	}

	board := make([]gin.H, len(entries))
	for i, e := range entries {
		board[i] = gin.H{
			"rank":   i + 1,
			"donor":  e.Donor.Hex(),
			"amount": e.Amount.String(),
		}
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"leaderboard": board,
	})
}

// GetCampaignStats 获取活动捐款统计
func (h *DonationHandler) GetCampaignStats(c *gin.Context) {
	uid := c.Param("uuid")

	stats, err := h.donationLogic.GetCampaignStats(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	if campaign, err := h.factory.GetCampaign(uid); err == nil {
		stats["goal_amount"] = campaign.GoalAmount.String()
		stats["total_raised"] = campaign.TotalRaised.String()
		stats["finalized"] = campaign.Finalized
		stats["refund_enabled"] = campaign.RefundEnabled
	}

	SuccessResponse(c, http.StatusOK, "", stats)
}
