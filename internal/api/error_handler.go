package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
)

// エラーコード
const (
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
	Reason    string `json:"reason,omitempty"`
}

// statusOf はエラー種別からステータスコードとエラーコードを決める
func statusOf(ae *apperror.Error) (int, string) {
	switch ae.Kind {
	case apperror.KindNotFound:
		return http.StatusNotFound, CodeNotFound
	case apperror.KindConflict:
		return http.StatusConflict, CodeConflict
	case apperror.KindBadRequest:
		return http.StatusBadRequest, CodeBadRequest
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity, CodeValidation
	case apperror.KindUnauthorized:
		if ae.Concealed {
			return http.StatusNotFound, CodeNotFound
		}
		return http.StatusUnauthorized, CodeUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden, CodeForbidden
	case apperror.KindRetryableConflict:
		// 再試行可能であることはステータスと reason で伝える
		return http.StatusServiceUnavailable, CodeInternal
	case apperror.KindInternal:
		return http.StatusInternalServerError, CodeInternal
	}
	return http.StatusInternalServerError, CodeInternal
}

// codeForStatus はフレームワーク由来のエラーのステータスコードをエラーコードに変換する
func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	}
	if status >= 500 {
		return CodeInternal
	}
	return CodeBadRequest
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := ErrorResponse{Success: false, Message: "内部サーバーエラー", ErrorCode: CodeInternal}
	code := http.StatusInternalServerError

	var he *echo.HTTPError
	if ae, ok := apperror.As(err); ok {
		code, resp.ErrorCode = statusOf(ae)
		resp.Message = ae.Message
		resp.Reason = ae.Reason
	} else if errors.As(err, &he) {
		code = he.Code
		resp.ErrorCode = codeForStatus(code)
		if m, ok := he.Message.(string); ok {
			resp.Message = m
		} else {
			resp.Message = http.StatusText(code)
		}
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, resp)
	}
	if err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
