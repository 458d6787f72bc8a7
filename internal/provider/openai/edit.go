package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/manash/thumbchat/internal/provider"
)

// Edit submits a multipart edit request. The endpoint accepts a single
// base image; the caller is responsible for normalizing its format.
func (c *Client) Edit(ctx context.Context, req *provider.EditRequest) (*provider.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	imagePart, err := writer.CreateFormFile("image", imageFilename(req.MIME))
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := imagePart.Write(req.Image); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}

	if err := writer.WriteField("prompt", req.Prompt); err != nil {
		return nil, fmt.Errorf("failed to write prompt: %w", err)
	}

	if err := writer.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("failed to write model: %w", err)
	}

	if err := writer.WriteField("n", "1"); err != nil {
		return nil, fmt.Errorf("failed to write count: %w", err)
	}

	if c.size != "" {
		if err := writer.WriteField("size", c.size); err != nil {
			return nil, fmt.Errorf("failed to write size: %w", err)
		}
	}

	if c.quality != "" {
		if err := writer.WriteField("quality", c.quality); err != nil {
			return nil, fmt.Errorf("failed to write quality: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := c.baseURL + "/images/edits"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logResponse(resp.StatusCode, resp.Header, bodyBytes)

	return c.decodeResponse(resp.StatusCode, bodyBytes, provider.ErrEditFailed)
}

func imageFilename(mime string) string {
	switch mime {
	case "image/jpeg":
		return "image.jpg"
	case "image/webp":
		return "image.webp"
	default:
		return "image.png"
	}
}
