package api

import (
	"PhotoAlbum/internal/session"
	"PhotoAlbum/pkg/auth"
	"PhotoAlbum/pkg/catalog"
	"PhotoAlbum/pkg/database"
	"encoding/json"
	"errors"
	"net/http"
)

// respondJSON 辅助函数，用于统一返回JSON响应
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError 辅助函数，用于统一返回错误信息
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

// statusFor 把领域错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, database.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, database.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, database.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondErr 返回映射后的状态码。500 和 503 会记录日志，其余属于调用方错误。
func (h *APIHandlers) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("请求处理失败", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
		if code == http.StatusServiceUnavailable {
			respondError(w, code, "存储暂时不可用，请稍后重试")
			return
		}
		respondError(w, code, "服务器内部错误")
		return
	}
	respondError(w, code, err.Error())
}
