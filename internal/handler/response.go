package handler

import (
	"errors"
	"net/http"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// ContractErrorResponse 把状态机错误映射为HTTP响应。
// 错误信息原样返回，调用方据此展示失败原因。
func ContractErrorResponse(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, contract.ErrCampaignNotFound):
		status = http.StatusNotFound
	case errors.Is(err, contract.ErrCampaignExists):
		status = http.StatusConflict
	case contract.IsAuthorizationError(err):
		status = http.StatusForbidden
	}
	ErrorResponse(c, status, err.Error())
}
