package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/listora/listora/internal/usecase"
)

// Client talks to the image/video generation service over HTTP.
// Image generation is synchronous; video generation returns an
// operation name to poll.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		// Callers bound each request with their own context deadline.
		http: &http.Client{},
	}
}

type generateImageRequest struct {
	Prompt      string `json:"prompt"`
	SourceImage string `json:"source_image,omitempty"`
}

type generateImageResponse struct {
	Image    string `json:"image"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`
}

func (c *Client) GenerateImage(ctx context.Context, prompt string, source []byte) (usecase.GeneratedImage, error) {
	req := generateImageRequest{Prompt: prompt}
	if len(source) > 0 {
		req.SourceImage = base64.StdEncoding.EncodeToString(source)
	}

	var res generateImageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/images/generate", req, &res); err != nil {
		return usecase.GeneratedImage{}, err
	}

	data, err := base64.StdEncoding.DecodeString(res.Image)
	if err != nil {
		return usecase.GeneratedImage{}, fmt.Errorf("decode image payload: %w", err)
	}
	return usecase.GeneratedImage{
		Data:     data,
		Width:    res.Width,
		Height:   res.Height,
		FileSize: int64(len(data)),
		MimeType: res.MimeType,
	}, nil
}

type generateVideoRequest struct {
	Prompt          string `json:"prompt"`
	Model           string `json:"model,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
}

type generateVideoResponse struct {
	OperationName string `json:"operation_name"`
}

func (c *Client) GenerateVideo(ctx context.Context, prompt string, params usecase.VideoParams) (string, error) {
	req := generateVideoRequest{
		Prompt:          prompt,
		Model:           params.Model,
		DurationSeconds: params.DurationSeconds,
		AspectRatio:     params.AspectRatio,
	}
	var res generateVideoResponse
	if err := c.do(ctx, http.MethodPost, "/v1/videos/generate", req, &res); err != nil {
		return "", err
	}
	if res.OperationName == "" {
		return "", fmt.Errorf("generator returned no operation name")
	}
	return res.OperationName, nil
}

type operationResponse struct {
	Name     string  `json:"name"`
	Done     bool    `json:"done"`
	Error    string  `json:"error,omitempty"`
	VideoURL string  `json:"video_url,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

func (c *Client) GetOperation(ctx context.Context, name string) (usecase.OperationStatus, error) {
	var res operationResponse
	path := "/v1/operations/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return usecase.OperationStatus{}, err
	}
	return usecase.OperationStatus{
		Name:     res.Name,
		Done:     res.Done,
		Error:    res.Error,
		VideoURL: res.VideoURL,
		Duration: res.Duration,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("generator %s %s: status %d: %s", method, path, res.StatusCode, b)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
