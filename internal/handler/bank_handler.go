package handler

import (
	"math/big"
	"net/http"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/bank"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// BankHandler 账本接口：余额查询和充值。充值接口供本地联调使用，
// 由配置开关控制，生产环境关闭。
type BankHandler struct {
	bank *bank.MemoryBank
}

// NewBankHandler 创建账本接口
func NewBankHandler(b *bank.MemoryBank) *BankHandler {
	return &BankHandler{bank: b}
}

// faucetRequest 充值请求
type faucetRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  string `json:"amount" binding:"required"` // wei，十进制字符串
}

// Faucet 给地址充值
func (h *BankHandler) Faucet(c *gin.Context) {
	var req faucetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsHexAddress(req.Address) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的充值金额")
		return
	}

	addr := common.HexToAddress(req.Address)
	h.bank.Mint(addr, amount)

	SuccessResponse(c, http.StatusOK, "充值成功", gin.H{
		"address": addr.Hex(),
		"balance": h.bank.BalanceOf(addr).String(),
	})
}

// GetBalance 查询地址余额
func (h *BankHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		ErrorResponse(c, http.StatusBadRequest, "无效的地址格式")
		return
	}

	addr := common.HexToAddress(address)
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"address": addr.Hex(),
		"balance": h.bank.BalanceOf(addr).String(),
	})
}
