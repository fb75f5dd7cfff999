package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/roteiro/studio/internal/stock"
)

const (
	defaultStockPage    = 1
	defaultStockPerPage = 9
)

func stockPhotosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, page, perPage, ok := stockQuery(w, r)
		if !ok {
			return
		}

		photos, err := cfg.Stock.SearchPhotos(r.Context(), query, page, perPage)
		if err != nil {
			writeStockError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string][]stock.Photo{"photos": photos})
	}
}

func stockVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, page, perPage, ok := stockQuery(w, r)
		if !ok {
			return
		}

		videos, err := cfg.Stock.SearchVideos(r.Context(), query, page, perPage)
		if err != nil {
			writeStockError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string][]stock.Video{"videos": videos})
	}
}

func stockQuery(w http.ResponseWriter, r *http.Request) (string, int, int, bool) {
	query := r.URL.Query().Get("query")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "query is required", "BAD_REQUEST")
		return "", 0, 0, false
	}
	return query, intParam(r, "page", defaultStockPage), intParam(r, "per_page", defaultStockPerPage), true
}

func intParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeStockError(w http.ResponseWriter, err error) {
	if errors.Is(err, stock.ErrNoAPIKeys) {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return
	}
	WriteDomainError(w, err)
}
