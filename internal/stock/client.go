// Package stock searches the Pexels and Pixabay catalogs for photos and
// videos, merging both providers into one result list. A failure in one
// provider degrades the result instead of failing the request.
package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoAPIKeys reports that neither provider key is configured.
var ErrNoAPIKeys = errors.New("stock search API keys are not configured")

// Photo is one merged photo search result.
type Photo struct {
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Source       string `json:"source"`
}

// Video is one merged video search result.
type Video struct {
	URL      string `json:"url"`
	Source   string `json:"source"`
	Platform string `json:"platform"`
}

// Client queries both providers.
type Client struct {
	pexelsKey  string
	pixabayKey string
	httpClient *http.Client
	logger     *slog.Logger

	// Base URLs are variable for tests.
	pexelsPhotoURL string
	pexelsVideoURL string
	pixabayURL     string
}

func NewClient(pexelsKey, pixabayKey string, logger *slog.Logger) *Client {
	return &Client{
		pexelsKey:  pexelsKey,
		pixabayKey: pixabayKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:         logger,
		pexelsPhotoURL: "https://api.pexels.com/v1/search",
		pexelsVideoURL: "https://api.pexels.com/videos/search",
		pixabayURL:     "https://pixabay.com/api/",
	}
}

// Configured reports whether both provider keys are present.
func (c *Client) Configured() bool {
	return c.pexelsKey != "" && c.pixabayKey != ""
}

// SearchPhotos queries both providers and merges the results, Pexels first.
func (c *Client) SearchPhotos(ctx context.Context, query string, page, perPage int) ([]Photo, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKeys
	}

	photos := []Photo{}

	var pexels pexelsPhotoResponse
	if err := c.getPexels(ctx, c.pexelsPhotoURL, query, page, perPage, &pexels); err != nil {
		c.warn("pexels photo search failed", err)
	} else {
		for _, p := range pexels.Photos {
			photos = append(photos, Photo{URL: p.Src.Medium, Photographer: p.Photographer, Source: "Pexels"})
		}
	}

	var pixabay pixabayPhotoResponse
	if err := c.getPixabay(ctx, c.pixabayURL, query, page, perPage, url.Values{"image_type": {"photo"}}, &pixabay); err != nil {
		c.warn("pixabay photo search failed", err)
	} else {
		for _, h := range pixabay.Hits {
			photos = append(photos, Photo{URL: h.WebformatURL, Photographer: h.User, Source: "Pixabay"})
		}
	}

	return photos, nil
}

// SearchVideos queries both providers and merges the results, Pexels first.
func (c *Client) SearchVideos(ctx context.Context, query string, page, perPage int) ([]Video, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKeys
	}

	videos := []Video{}

	var pexels pexelsVideoResponse
	if err := c.getPexels(ctx, c.pexelsVideoURL, query, page, perPage, &pexels); err != nil {
		c.warn("pexels video search failed", err)
	} else {
		for _, v := range pexels.Videos {
			if len(v.VideoFiles) == 0 {
				continue
			}
			videos = append(videos, Video{URL: v.VideoFiles[0].Link, Source: v.User.Name, Platform: "Pexels"})
		}
	}

	var pixabay pixabayVideoResponse
	if err := c.getPixabay(ctx, c.pixabayURL+"videos/", query, page, perPage, nil, &pixabay); err != nil {
		c.warn("pixabay video search failed", err)
	} else {
		for _, h := range pixabay.Hits {
			videos = append(videos, Video{URL: h.Videos.Medium.URL, Source: h.User, Platform: "Pixabay"})
		}
	}

	return videos, nil
}

func (c *Client) getPexels(ctx context.Context, baseURL, query string, page, perPage int, out any) error {
	q := url.Values{
		"query":    {query},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.pexelsKey)
	return c.do(req, out)
}

func (c *Client) getPixabay(ctx context.Context, baseURL, query string, page, perPage int, extra url.Values, out any) error {
	q := url.Values{
		"key":      {c.pixabayKey},
		"q":        {query},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 256))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse provider response: %w", err)
	}
	return nil
}

func (c *Client) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, "error", err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// Provider wire formats, trimmed to the fields this server uses.

type pexelsPhotoResponse struct {
	Photos []struct {
		Photographer string `json:"photographer"`
		Src          struct {
			Medium string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

type pexelsVideoResponse struct {
	Videos []struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		VideoFiles []struct {
			Link string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

type pixabayPhotoResponse struct {
	Hits []struct {
		User         string `json:"user"`
		WebformatURL string `json:"webformatURL"`
	} `json:"hits"`
}

type pixabayVideoResponse struct {
	Hits []struct {
		User   string `json:"user"`
		Videos struct {
			Medium struct {
				URL string `json:"url"`
			} `json:"medium"`
		} `json:"videos"`
	} `json:"hits"`
}
