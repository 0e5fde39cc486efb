package quranapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quran-quiz-service/internal/domain"
)

// DefaultBaseURL is the public text API endpoint.
const DefaultBaseURL = "https://api.alquran.cloud/v1"

// Client fetches page content from the alquran.cloud text API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

type pageResponse struct {
	Code int `json:"code"`
	Data struct {
		Number int `json:"number"`
		Ayahs  []struct {
			Number        int    `json:"number"`
			Text          string `json:"text"`
			NumberInSurah int    `json:"numberInSurah"`
			Surah         struct {
				Number int    `json:"number"`
				Name   string `json:"name"`
			} `json:"surah"`
		} `json:"ayahs"`
	} `json:"data"`
}

// Page returns the ordered verse units of one mushaf page.
func (c *Client) Page(ctx context.Context, page int) ([]domain.Verse, error) {
	url := fmt.Sprintf("%s/page/%d/quran-uthmani", c.baseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page %d: unexpected status %d", page, resp.StatusCode)
	}

	var decoded pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}

	verses := make([]domain.Verse, 0, len(decoded.Data.Ayahs))
	for _, a := range decoded.Data.Ayahs {
		verses = append(verses, domain.Verse{
			Number:        a.Number,
			Text:          a.Text,
			NumberInSurah: a.NumberInSurah,
			SurahNumber:   a.Surah.Number,
			SurahName:     a.Surah.Name,
		})
	}
	return verses, nil
}
