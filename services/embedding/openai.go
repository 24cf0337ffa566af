// Package embedsvc turns profile and job texts into embedding vectors with the OpenAI API.
package embedsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/jobmatch"
)

const serviceName = "embedding provider"

var (
	errNoEmbedding = errors.New("no embedding returned")

	// backoff between retries; mockable
	retryDelay = 500 * time.Millisecond
)

type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	timeout    time.Duration
	maxRetries int
	logger     core.Logger
}

var _ jobmatch.Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(conf *core.Config, logger core.Logger) *OpenAIEmbedder {
	clientConf := openai.DefaultConfig(conf.OpenAI.ApiKey)
	if conf.OpenAI.BaseURL != "" {
		clientConf.BaseURL = conf.OpenAI.BaseURL
	}
	clientConf.HTTPClient = &http.Client{}

	model := conf.OpenAI.EmbeddingModel
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConf),
		model:      openai.EmbeddingModel(model),
		timeout:    conf.OpenAI.Timeout,
		maxRetries: conf.OpenAI.MaxRetries,
		logger:     logger,
	}
}

// Embed returns the embedding of `text`. Rate limits and server errors are retried up to maxRetries times,
// each attempt bounded by the configured timeout. Failures are reported as core.UpstreamError.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var err error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Warn(fmt.Sprintf("embedding attempt %d failed, retrying", attempt), err)
			select {
			case <-ctx.Done():
				return nil, core.NewUpstreamError(serviceName, ctx.Err())
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}

		var vec []float32
		vec, err = e.embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		if !retryable(err) {
			break
		}
	}
	return nil, core.NewUpstreamError(serviceName, err)
}

func (e *OpenAIEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 || len(res.Data[0].Embedding) == 0 {
		return nil, errNoEmbedding
	}
	return res.Data[0].Embedding, nil
}

// retryable reports whether the provider may succeed on a later attempt.
func retryable(err error) bool {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		status int
	)
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return false
	}
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
