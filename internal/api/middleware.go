package api

import (
	"PhotoAlbum/internal/session"
	"PhotoAlbum/pkg/catalog"
	"context"
	"net/http"
	"strings"
)

type viewerKey struct{}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireSession 校验 Bearer 令牌，并把对应的 viewer 放入请求上下文。
func requireSession(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := sessions.Lookup(bearerToken(r))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "请先登录")
				return
			}
			ctx := context.WithValue(r.Context(), viewerKey{}, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func viewerFrom(r *http.Request) catalog.Viewer {
	v, _ := r.Context().Value(viewerKey{}).(catalog.Viewer)
	return v
}
