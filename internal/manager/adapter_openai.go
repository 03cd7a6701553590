package manager

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openAIAdapter implements InferenceAdapter against any server exposing the
// OpenAI completions API (llama.cpp server, vLLM, hosted inference endpoints).
// The model id is sent as the request's model field.
type openAIAdapter struct {
	baseURL    string
	reqTimeout time.Duration
	httpClient *http.Client
	anonymous  bool
}

// OpenAIOption customizes the openai backend.
type OpenAIOption func(*openAIAdapter)

// AllowAnonymous lets loads proceed without an access token, for local
// servers that do not check keys.
func AllowAnonymous() OpenAIOption {
	return func(a *openAIAdapter) { a.anonymous = true }
}

// NewOpenAIAdapter constructs a server-backed adapter. reqTimeout bounds each
// completion call (0 = only the caller's context).
func NewOpenAIAdapter(baseURL string, reqTimeout, connectTimeout time.Duration, opts ...OpenAIOption) InferenceAdapter {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: every request carries a context deadline instead.
	a := &openAIAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		reqTimeout: reqTimeout,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *openAIAdapter) Name() string { return "openai" }

func (a *openAIAdapter) client(token string) openai.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(a.baseURL + "/"),
		option.WithHTTPClient(a.httpClient),
		option.WithMaxRetries(0),
	}
	if token != "" {
		opts = append(opts, option.WithAPIKey(token))
	}
	return openai.NewClient(opts...)
}

// RequiresToken is true unless the adapter was built with AllowAnonymous.
func (a *openAIAdapter) RequiresToken() bool { return !a.anonymous }

// Authenticate looks the model up on the server. 401/403 are credential
// rejections; 404 is tolerated because many single-model servers do not
// implement per-model lookup.
func (a *openAIAdapter) Authenticate(ctx context.Context, modelID, token string) error {
	cli := a.client(token)
	_, err := cli.Models.Get(ctx, modelID)
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrCredentialsRejected, http.StatusText(apiErr.StatusCode))
		case http.StatusNotFound:
			return nil
		}
	}
	return err
}

func (a *openAIAdapter) Start(ctx context.Context, spec LoadSpec) (InferSession, error) {
	if strings.TrimSpace(spec.ModelID) == "" {
		return nil, errors.New("model id is empty")
	}
	if a.baseURL == "" {
		return nil, ErrDependencyUnavailable("openai backend: no base URL configured")
	}
	return &openAISession{adapter: a, client: a.client(spec.Token), modelID: spec.ModelID}, nil
}

type openAISession struct {
	adapter *openAIAdapter
	client  openai.Client
	modelID string
}

func (s *openAISession) Generate(ctx context.Context, prompt string, params SamplingParams) (FinalResult, error) {
	if s.adapter.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.adapter.reqTimeout)
		defer cancel()
	}
	temp := float64(params.Temperature)
	if !params.DoSample {
		temp = 0
	}
	resp, err := s.client.Completions.New(ctx, openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(s.modelID),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		MaxTokens:   openai.Int(int64(params.MaxNewTokens)),
		Temperature: openai.Float(temp),
		TopP:        openai.Float(float64(params.TopP)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, err
	}
	if len(resp.Choices) == 0 {
		return FinalResult{}, errors.New("completion returned no choices")
	}
	ch := resp.Choices[0]
	return FinalResult{
		Content:      ch.Text,
		FinishReason: string(ch.FinishReason),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (s *openAISession) Close() error { return nil }
