package dictionary

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultKRDictURL = "https://krdict.korean.go.kr/api/search"

	maxResponseSize = 1 << 20
)

// KRDict looks words up in the National Institute of Korean Language's
// learner dictionary search API.
type KRDict struct {
	key     string
	baseURL string
	client  *http.Client
}

func NewKRDict(key, baseURL string, timeout time.Duration) *KRDict {
	if baseURL == "" {
		baseURL = DefaultKRDictURL
	}

	return &KRDict{
		key:     key,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type krdictResponse struct {
	XMLName   xml.Name
	Total     int          `xml:"total"`
	Items     []krdictItem `xml:"item"`
	ErrorCode string       `xml:"error_code"`
	Message   string       `xml:"message"`
}

type krdictItem struct {
	Word string `xml:"word"`
}

// Lookup reports whether the search returns at least one headword exactly
// matching word.
func (k *KRDict) Lookup(ctx context.Context, word string) (bool, error) {
	if k.key == "" {
		return false, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("key", k.key)
	params.Set("q", word)
	params.Set("part", "word")
	params.Set("sort", "dict")
	params.Set("start", "1")
	params.Set("num", "20")
	params.Set("advanced", "y")
	params.Set("method", "exact")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("krdict: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return false, err
	}

	var result krdictResponse
	if err := xml.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("krdict: malformed response: %w", err)
	}

	switch result.XMLName.Local {
	case "channel":
	case "error":
		return false, fmt.Errorf("krdict: error %s: %s", result.ErrorCode, result.Message)
	default:
		return false, fmt.Errorf("krdict: unexpected root element %q", result.XMLName.Local)
	}

	matches := 0
	for _, item := range result.Items {
		if headword(item.Word) == word {
			matches++
		}
	}

	return matches > 0, nil
}

// headword strips the homograph number krdict attaches to some entries.
// Affix markers are kept, so "-님" never matches the word "님".
func headword(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "0123456789")
}
