// Package imagesearch реализует поиск иллюстраций: два провайдера по очереди,
// при неудаче возвращается статическая заглушка. Ошибки провайдеров
// логируются и наружу не поднимаются.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/remedyhub/remedy-api/internal/lib/sl"
)

// Image результат поиска изображения.
type Image struct {
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// Client клиент поиска изображений с цепочкой провайдеров.
type Client struct {
	httpClient     *http.Client
	log            *slog.Logger
	placeholderURL string

	openverseURL string
	wikimediaURL string
}

// NewClient создает клиент с таймаутом запросов к провайдерам.
func NewClient(log *slog.Logger, placeholderURL string) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		log:            log,
		placeholderURL: placeholderURL,
		openverseURL:   "https://api.openverse.org/v1/images/",
		wikimediaURL:   "https://commons.wikimedia.org/w/api.php",
	}
}

// Query ищет изображение по запросу. Провайдеры опрашиваются по очереди;
// если оба недоступны, возвращается заглушка. Ошибки не возвращаются.
func (c *Client) Query(ctx context.Context, query string) Image {
	if img, err := c.queryOpenverse(ctx, query); err == nil {
		return img
	} else {
		c.log.Warn("openverse lookup failed", sl.Err(err))
	}

	if img, err := c.queryWikimedia(ctx, query); err == nil {
		return img
	} else {
		c.log.Warn("wikimedia lookup failed", sl.Err(err))
	}

	return Image{MimeType: "image/png", URL: c.placeholderURL}
}

func (c *Client) queryOpenverse(ctx context.Context, query string) (Image, error) {
	const op = "imagesearch.queryOpenverse"

	reqURL := c.openverseURL + "?page_size=1&q=" + url.QueryEscape(query)
	var payload struct {
		Results []struct {
			URL      string `json:"url"`
			Filetype string `json:"filetype"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, reqURL, &payload); err != nil {
		return Image{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(payload.Results) == 0 {
		return Image{}, fmt.Errorf("%s: no results", op)
	}
	mime := "image/jpeg"
	if payload.Results[0].Filetype != "" {
		mime = "image/" + payload.Results[0].Filetype
	}
	return Image{MimeType: mime, URL: payload.Results[0].URL}, nil
}

func (c *Client) queryWikimedia(ctx context.Context, query string) (Image, error) {
	const op = "imagesearch.queryWikimedia"

	reqURL := c.wikimediaURL +
		"?action=query&format=json&generator=search&gsrnamespace=6&gsrlimit=1" +
		"&prop=imageinfo&iiprop=url|mime&gsrsearch=" + url.QueryEscape(query)
	var payload struct {
		Query struct {
			Pages map[string]struct {
				ImageInfo []struct {
					URL  string `json:"url"`
					Mime string `json:"mime"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, reqURL, &payload); err != nil {
		return Image{}, fmt.Errorf("%s: %w", op, err)
	}
	for _, page := range payload.Query.Pages {
		if len(page.ImageInfo) > 0 {
			return Image{MimeType: page.ImageInfo[0].Mime, URL: page.ImageInfo[0].URL}, nil
		}
	}
	return Image{}, fmt.Errorf("%s: no results", op)
}

func (c *Client) getJSON(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
