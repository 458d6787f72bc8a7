// Package provider defines the contract with the remote image service.
package provider

import (
	"context"
	"errors"
)

var (
	ErrGenerationFailed  = errors.New("image generation failed")
	ErrEditFailed        = errors.New("image edit failed")
	ErrMalformedResponse = errors.New("malformed response from image service")
)

// Provider is the remote image-generation service, consumed as an
// opaque HTTP collaborator.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *GenerateRequest) (*Result, error)
	Edit(ctx context.Context, req *EditRequest) (*Result, error)
}

// Config carries the static credential and call parameters, passed in
// at construction rather than read from ambient globals. An empty
// APIKey is permitted: requests then fail at call time with the remote
// service's authentication error.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Size       string
	Quality    string
	TimeoutSec int
	Verbose    bool
}

// GenerateRequest asks for one fresh image from a prompt.
type GenerateRequest struct {
	Prompt string
}

// EditRequest asks for one edit of a base image. The service accepts a
// single image per edit.
type EditRequest struct {
	Image  []byte
	MIME   string
	Prompt string
}

func (r *EditRequest) Validate() error {
	if len(r.Image) == 0 {
		return errors.New("image data is required for editing")
	}
	if r.Prompt == "" {
		return errors.New("prompt cannot be empty")
	}
	return nil
}

// Usage is the token accounting record the service returns per call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Result is one returned image plus its usage record.
type Result struct {
	Image []byte
	Usage Usage
}
