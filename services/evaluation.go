package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/shared"
)

// EvaluationService proxies answer evaluation to a chat-completions LLM.
// DeepSeek is the primary provider; any primary failure falls through to
// OpenAI. Both speak the same chat-completions wire format, so one client
// serves both.
type EvaluationService struct {
	appContext.DefaultService

	httpClient *http.Client
	providers  []llmProvider
}

type llmProvider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
}

const EVALUATION_SVC = "evaluation_svc"

const (
	evaluationTimeout = 30 * time.Second

	defaultExpertAnswer = "No expert answer provided. Evaluate based on structure, clarity, and completeness."
)

// defaultRubric is substituted when the caller does not supply one.
var defaultRubric = json.RawMessage(`{
  "structure": {"weight": 0.3, "criteria": ["Clear structure", "Logical flow", "Organized points"]},
  "depth": {"weight": 0.3, "criteria": ["In-depth analysis", "Specific examples", "Data-driven"]},
  "completeness": {"weight": 0.2, "criteria": ["All aspects covered", "Comprehensive", "No gaps"]},
  "clarity": {"weight": 0.2, "criteria": ["Clear communication", "Concise", "Easy to understand"]}
}`)

func (svc EvaluationService) Id() string {
	return EVALUATION_SVC
}

func (svc *EvaluationService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: evaluationTimeout,
	}

	svc.providers = nil
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		svc.providers = append(svc.providers, llmProvider{
			name:    "deepseek",
			baseURL: envOr("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
			apiKey:  key,
			model:   envOr("DEEPSEEK_MODEL", "deepseek-chat"),
		})
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		svc.providers = append(svc.providers, llmProvider{
			name:    "openai",
			baseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			apiKey:  key,
			model:   envOr("OPENAI_EVAL_MODEL", "gpt-4o-mini"),
		})
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *EvaluationService) Start() error {
	if len(svc.providers) == 0 {
		log.Warn("No LLM provider configured; evaluation requests will fail. Set DEEPSEEK_API_KEY or OPENAI_API_KEY")
	}
	return nil
}

// SetProviders replaces the provider chain. Used by tests to point the
// service at local stub servers.
func (svc *EvaluationService) SetProviders(providers []llmProvider) {
	svc.providers = providers
}

// NewTestProvider builds a provider entry for a stub endpoint.
func NewTestProvider(name, baseURL, model string) llmProvider {
	return llmProvider{name: name, baseURL: baseURL, apiKey: "test", model: model}
}

// EvaluateAnswer validates the request, fills in default rubric and expert
// answer, and walks the provider chain until one returns parseable feedback.
// Validation failures never reach the network.
func (svc *EvaluationService) EvaluateAnswer(ctx context.Context, req dto.EvaluationRequest) (*dto.EvaluationFeedback, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, shared.NewBadRequestError(errors.New("empty question"), "Question is required and must be a non-empty string")
	}
	if strings.TrimSpace(req.UserAnswer) == "" {
		return nil, shared.NewBadRequestError(errors.New("empty user answer"), "User answer is required and must be a non-empty string")
	}
	if err := req.Validate(); err != nil {
		return nil, shared.NewBadRequestError(err, "Invalid evaluation request")
	}

	expertAnswer := req.ExpertAnswer
	if expertAnswer == "" {
		expertAnswer = defaultExpertAnswer
	}

	rubric := req.Rubric
	if len(rubric) == 0 {
		rubric = defaultRubric
	}
	if len(rubric) > shared.MaxRubricLength {
		return nil, shared.NewBadRequestError(
			fmt.Errorf("rubric is %d characters", len(rubric)),
			fmt.Sprintf("Rubric must not exceed %d characters when stringified", shared.MaxRubricLength))
	}

	if len(svc.providers) == 0 {
		return nil, shared.NewInternalError(errors.New("no provider configured"), "No API key configured. Please set DEEPSEEK_API_KEY or OPENAI_API_KEY")
	}

	prompt := buildEvaluationPrompt(req.Question, req.UserAnswer, expertAnswer, rubric)

	ctx, cancel := context.WithTimeout(ctx, evaluationTimeout)
	defer cancel()

	var lastErr error
	for _, provider := range svc.providers {
		feedback, err := svc.callProvider(ctx, provider, prompt)
		if err == nil {
			recordEvaluation(provider.name, "success")
			return feedback, nil
		}

		recordEvaluation(provider.name, "error")
		log.WithError(err).WithField("provider", provider.name).Warn("Evaluation provider failed")
		lastErr = err

		// The deadline is shared across the chain: once it fires there is
		// no point trying the fallback.
		if errors.Is(err, context.DeadlineExceeded) || shared.IsTimeout(err) {
			return nil, shared.NewTimeoutError(err, fmt.Sprintf("Request timeout after %dms", evaluationTimeout.Milliseconds()))
		}
	}

	return nil, shared.NewTransientError(lastErr, "All evaluation providers failed")
}

func buildEvaluationPrompt(question, userAnswer, expertAnswer string, rubric json.RawMessage) string {
	return fmt.Sprintf(`You are an expert Product Manager interviewer. Evaluate this PM interview answer.

Question: %s
Expert Answer (Reference): %s
Rubric: %s

User's Answer: %s

Provide feedback in strict JSON format with the following structure:
{
  "score": number (1-10),
  "strengths": ["string", "string"],
  "improvements": ["string", "string"],
  "expertHighlights": ["string", "string"],
  "recommendedPractice": "string"
}

Do not add any markdown formatting or explanations outside the JSON.`,
		question, expertAnswer, string(rubric), userAnswer)
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (svc *EvaluationService) callProvider(ctx context.Context, provider llmProvider, prompt string) (*dto.EvaluationFeedback, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:     provider.model,
		MaxTokens: 1024,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(provider.baseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+provider.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := svc.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("HTTP %d: unparseable provider response", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if completion.Error != nil && completion.Error.Message != "" {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, completion.Error.Message)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if completion.Error != nil && completion.Error.Message != "" {
		return nil, errors.New(completion.Error.Message)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, errors.New("no response content from provider")
	}

	return parseFeedback(completion.Choices[0].Message.Content)
}

// parseFeedback strips any markdown code fence the model wrapped around its
// reply, then holds it to the strict feedback contract.
func parseFeedback(content string) (*dto.EvaluationFeedback, error) {
	clean := strings.ReplaceAll(content, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var feedback dto.EvaluationFeedback
	if err := json.Unmarshal([]byte(clean), &feedback); err != nil {
		return nil, fmt.Errorf("model reply is not valid feedback JSON: %w", err)
	}
	if feedback.Score < 1 || feedback.Score > 10 {
		return nil, fmt.Errorf("score %v outside the 1-10 range", feedback.Score)
	}
	return &feedback, nil
}
