package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ZacBytes/caloric/config"
	"github.com/ZacBytes/caloric/llm"
	"github.com/ZacBytes/caloric/metrics"
	"github.com/ZacBytes/caloric/utils"
)

const (
	promptKindText  = "text"
	promptKindImage = "image"

	defaultServingSize = "1 serving"
)

// ErrNotConfigured is returned when the estimator has no API credential.
// Requests failing this way never reach the model API.
var ErrNotConfigured = errors.New("estimator API key not configured")

// ValidationError rejects a request before any upstream call is made.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func newValidationError(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// NutritionItem is one estimated food item. Every field is always populated:
// macros default to 0 and serving size to "1 serving" when the model omits
// them.
type NutritionItem struct {
	Name        string  `json:"name"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	ServingSize string  `json:"serving_size"`
}

// EstimateInput is the raw estimation request as bound from the client.
// Exactly one of FoodQuery/Image carries content; PromptKind selects which,
// and is inferred when empty.
type EstimateInput struct {
	PromptKind string
	FoodQuery  string
	Image      string // data:image/<fmt>;base64,<...>
}

// nutritionQuery is a validated estimation request.
type nutritionQuery struct {
	Kind      string
	Query     string
	ImageMIME string
	ImageData []byte
}

// EstimationService turns free-text food descriptions and meal photos into
// nutrition estimates via a multimodal model. Upstream failures and
// unusable replies degrade to a single deterministic fallback item; callers
// never see an upstream error.
type EstimationService struct {
	client *llm.Client
	cfg    config.EstimatorConfig
	logger *slog.Logger
}

func NewEstimationService(client *llm.Client, cfg config.EstimatorConfig, logger *slog.Logger) *EstimationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EstimationService{client: client, cfg: cfg, logger: logger}
}

// Estimate runs the full pipeline: validate, call the model once, parse and
// coerce the reply. The returned list is never empty. Error returns are
// limited to *ValidationError and ErrNotConfigured; everything upstream of
// those is absorbed into the fallback item.
func (s *EstimationService) Estimate(ctx context.Context, input EstimateInput) ([]NutritionItem, error) {
	q, err := parseQuery(input)
	if err != nil {
		metrics.EstimateRequests.WithLabelValues(labelKind(input.PromptKind), metrics.OutcomePrecondition).Inc()
		return nil, err
	}

	if s.cfg.APIKey == "" {
		metrics.EstimateRequests.WithLabelValues(q.Kind, metrics.OutcomeConfig).Inc()
		return nil, ErrNotConfigured
	}

	items, ok := s.callModel(ctx, q)
	if !ok {
		metrics.EstimateRequests.WithLabelValues(q.Kind, metrics.OutcomeFallback).Inc()
		return []NutritionItem{s.fallbackItem(q)}, nil
	}

	metrics.EstimateRequests.WithLabelValues(q.Kind, metrics.OutcomeOK).Inc()
	return items, nil
}

// parseQuery validates the raw input into a query, or a *ValidationError.
func parseQuery(input EstimateInput) (nutritionQuery, error) {
	kind := input.PromptKind
	if kind == "" {
		// Older clients omit prompt_kind; infer it from whichever field is set.
		switch {
		case strings.TrimSpace(input.FoodQuery) != "":
			kind = promptKindText
		case input.Image != "":
			kind = promptKindImage
		default:
			return nutritionQuery{}, newValidationError("either foodQuery or image is required")
		}
	}

	switch kind {
	case promptKindText:
		query := strings.TrimSpace(input.FoodQuery)
		if query == "" {
			return nutritionQuery{}, newValidationError("foodQuery must not be empty")
		}
		return nutritionQuery{Kind: promptKindText, Query: query}, nil

	case promptKindImage:
		if input.Image == "" {
			return nutritionQuery{}, newValidationError("image is required")
		}
		mimeType, data, err := utils.ParseImageDataURI(input.Image)
		if err != nil {
			return nutritionQuery{}, newValidationError("invalid image: %v", err)
		}
		return nutritionQuery{Kind: promptKindImage, ImageMIME: mimeType, ImageData: data}, nil

	default:
		return nutritionQuery{}, newValidationError("unknown prompt_kind %q", kind)
	}
}

// callModel makes the single upstream attempt. ok is false when the reply
// cannot be turned into at least one usable item, for any reason.
func (s *EstimationService) callModel(ctx context.Context, q nutritionQuery) ([]NutritionItem, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	temp := s.cfg.Temperature
	req := llm.Request{
		Messages:    s.buildMessages(q),
		Temperature: &temp,
		MaxTokens:   s.cfg.MaxTokens,
	}

	started := time.Now()
	resp, err := s.client.Complete(ctx, req)
	metrics.UpstreamDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.logger.Warn("estimation upstream failed, substituting fallback",
			"kind", q.Kind,
			"error", err)
		return nil, false
	}

	items, err := parseItems(resp.Content)
	if err != nil {
		s.logger.Warn("estimation reply unusable, substituting fallback",
			"kind", q.Kind,
			"request_id", resp.RequestID,
			"error", err)
		return nil, false
	}

	return items, true
}

func (s *EstimationService) buildMessages(q nutritionQuery) []llm.Message {
	system := llm.Message{Role: "system", Content: nutritionSystemPrompt}

	if q.Kind == promptKindImage {
		return []llm.Message{system, {
			Role:    "user",
			Content: imageQueryPrompt,
			Image:   &llm.ImageAttachment{MIMEType: q.ImageMIME, Data: q.ImageData},
		}}
	}

	return []llm.Message{system, {
		Role:    "user",
		Content: fmt.Sprintf(textQueryPrompt, q.Query),
	}}
}

// fallbackItem builds the deterministic substitute used whenever the model
// gives us nothing usable. For text queries the name keeps the user's words.
func (s *EstimationService) fallbackItem(q nutritionQuery) NutritionItem {
	name := "Unidentified meal"
	if q.Kind == promptKindText {
		name = q.Query + " (estimate)"
	}

	fb := s.cfg.Fallback
	return NutritionItem{
		Name:        name,
		Calories:    fb.Calories,
		Protein:     fb.Protein,
		Carbs:       fb.Carbs,
		Fat:         fb.Fat,
		ServingSize: fb.ServingSize,
	}
}

// parseItems extracts and validates the results list from a model reply.
// Unusable entries are dropped; an error means nothing survived.
func parseItems(content string) ([]NutritionItem, error) {
	jsonStr := llm.ExtractJSON(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var parsed struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON in reply: %w", err)
	}
	if parsed.Results == nil {
		return nil, fmt.Errorf("reply has no results list")
	}

	items := make([]NutritionItem, 0, len(parsed.Results))
	for _, rawMsg := range parsed.Results {
		var raw map[string]any
		if err := json.Unmarshal(rawMsg, &raw); err != nil {
			continue
		}
		if item, ok := coerceItem(raw); ok {
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no usable items in reply")
	}
	return items, nil
}

// coerceItem normalizes one raw result entry. Entries without a name or a
// positive calorie count are unusable; macro fields coerce to 0 when missing,
// non-numeric or negative.
func coerceItem(raw map[string]any) (NutritionItem, bool) {
	name, _ := raw["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return NutritionItem{}, false
	}

	calories, ok := asNumber(raw["calories"])
	if !ok || calories <= 0 {
		return NutritionItem{}, false
	}

	return NutritionItem{
		Name:        name,
		Calories:    calories,
		Protein:     clampNonNegative(raw["protein"]),
		Carbs:       clampNonNegative(raw["carbs"]),
		Fat:         clampNonNegative(raw["fat"]),
		ServingSize: servingSize(raw),
	}, true
}

// asNumber accepts JSON numbers and numeric strings; models emit both.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clampNonNegative(v any) float64 {
	n, ok := asNumber(v)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func servingSize(raw map[string]any) string {
	for _, key := range []string{"serving_size", "servingSize"} {
		if s, ok := raw[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return defaultServingSize
}

// labelKind keeps metric labels bounded for unrecognized kinds.
func labelKind(kind string) string {
	switch kind {
	case promptKindText, promptKindImage:
		return kind
	case "":
		return "inferred"
	default:
		return "unknown"
	}
}
