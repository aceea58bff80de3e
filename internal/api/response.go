package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response は成功レスポンスの統一フォーマット
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK は200で data を返す
func OK(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message})
}

// Created は201で data を返す
func Created(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data, Message: message})
}
