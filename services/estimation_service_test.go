package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZacBytes/caloric/config"
	"github.com/ZacBytes/caloric/llm"
	_ "github.com/ZacBytes/caloric/llm/providers" // register providers
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completionEnvelope wraps reply content in the OpenAI chat format the mock
// upstream speaks.
func completionEnvelope(content string) string {
	body, _ := json.Marshal(map[string]any{
		"model": "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 50, "completion_tokens": 30, "total_tokens": 80},
	})
	return string(body)
}

func testEstimatorConfig(baseURL string) config.EstimatorConfig {
	return config.EstimatorConfig{
		Provider:    "openai",
		BaseURL:     baseURL,
		Model:       "test-model",
		APIKey:      "test-key",
		Temperature: 0.2,
		MaxTokens:   1024,
		Timeout:     2 * time.Second,
		Fallback: config.FallbackConfig{
			Calories:    250,
			Protein:     10,
			Carbs:       30,
			Fat:         9,
			ServingSize: "1 serving",
		},
	}
}

// newEstimator wires an EstimationService to a mock upstream and counts calls
// that actually reach it.
func newEstimator(t *testing.T, handler http.HandlerFunc) (*EstimationService, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := testEstimatorConfig(server.URL)
	client, err := llm.NewClient(llm.Endpoint{
		Provider: cfg.Provider,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
	})
	require.NoError(t, err)

	return NewEstimationService(client, cfg, nil), &calls
}

func replyWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionEnvelope(content))
	}
}

func pngDataURI() string {
	header := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(header)
}

func TestEstimate_TextQuery(t *testing.T) {
	svc, calls := newEstimator(t, replyWith(
		`{"results":[{"name":"grilled chicken breast","calories":165,"protein":31,"carbs":0,"fat":3.6,"serving_size":"100g"}]}`))

	items, err := svc.Estimate(context.Background(), EstimateInput{
		PromptKind: "text",
		FoodQuery:  "grilled chicken breast",
	})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, NutritionItem{
		Name:        "grilled chicken breast",
		Calories:    165,
		Protein:     31,
		Carbs:       0,
		Fat:         3.6,
		ServingSize: "100g",
	}, items[0])
	assert.Equal(t, int32(1), calls.Load())
}

func TestEstimate_SendsBoundedDeterministicRequest(t *testing.T) {
	var seen struct {
		Model       string   `json:"model"`
		Temperature *float64 `json:"temperature"`
		MaxTokens   *int     `json:"max_tokens"`
	}
	svc, _ := newEstimator(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		fmt.Fprint(w, completionEnvelope(`{"results":[{"name":"x","calories":1}]}`))
	})

	_, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "an apple"})
	require.NoError(t, err)

	assert.Equal(t, "test-model", seen.Model)
	require.NotNil(t, seen.Temperature)
	assert.Equal(t, 0.2, *seen.Temperature)
	require.NotNil(t, seen.MaxTokens)
	assert.Equal(t, 1024, *seen.MaxTokens)
}

func TestEstimate_ProseWrappedReply(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(
		`Here is the nutritional analysis you asked for: {"results": [{"name": "Banana", "calories": 105, "protein": 1.3, "carbs": 27, "fat": 0.4, "serving_size": "1 medium"}]} Let me know if you need anything else!`))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "one banana"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Banana", items[0].Name)
	assert.Equal(t, 105.0, items[0].Calories)
	assert.Equal(t, "1 medium", items[0].ServingSize)
}

func TestEstimate_FencedReply(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(
		"```json\n{\"results\":[{\"name\":\"oatmeal\",\"calories\":150,\"protein\":5,\"carbs\":27,\"fat\":3,\"serving_size\":\"1 cup\"}]}\n```"))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "oatmeal"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "oatmeal", items[0].Name)
}

func TestEstimate_RefusalFallsBack(t *testing.T) {
	svc, _ := newEstimator(t, replyWith("I cannot help with that."))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "mystery stew"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, NutritionItem{
		Name:        "mystery stew (estimate)",
		Calories:    250,
		Protein:     10,
		Carbs:       30,
		Fat:         9,
		ServingSize: "1 serving",
	}, items[0])
}

func TestEstimate_MissingResultsKeyFallsBack(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(`{"answer": 42}`))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "toast"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "toast (estimate)", items[0].Name)
}

func TestEstimate_EmptyResultsFallsBack(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(`{"results": []}`))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "air"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "air (estimate)", items[0].Name)
}

func TestEstimate_DropsUnusableItems(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(`{"results": [
		{"name": "rice", "calories": 206, "protein": 4.3, "carbs": 45, "fat": 0.4, "serving_size": "1 cup"},
		{"calories": 100},
		{"name": "   ", "calories": 100},
		{"name": "phantom", "calories": 0},
		{"name": "negative", "calories": -50},
		{"name": "wordy", "calories": "lots"},
		"not even an object"
	]}`))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "rice bowl"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "rice", items[0].Name)
}

func TestEstimate_CoercesLooseFields(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(`{"results": [{
		"name": "protein shake",
		"calories": "165",
		"protein": -3,
		"carbs": "12.5",
		"fat": "n/a",
		"servingSize": "1 bottle"
	}]}`))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "protein shake"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, NutritionItem{
		Name:        "protein shake",
		Calories:    165,
		Protein:     0, // negative clamps to zero
		Carbs:       12.5,
		Fat:         0, // non-numeric coerces to zero
		ServingSize: "1 bottle",
	}, items[0])
}

func TestEstimate_DefaultServingSize(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(`{"results": [{"name": "egg", "calories": 78}]}`))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "egg"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1 serving", items[0].ServingSize)
	assert.Zero(t, items[0].Protein)
}

func TestEstimate_AllItemsDroppedFallsBack(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(`{"results": [{"name": "ghost", "calories": 0}, {"calories": 10}]}`))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "ghost meal"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ghost meal (estimate)", items[0].Name)
	assert.Equal(t, 250.0, items[0].Calories)
}

func TestEstimate_UpstreamErrorFallsBack(t *testing.T) {
	svc, calls := newEstimator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "pasta"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "pasta (estimate)", items[0].Name)
	// Single attempt, no retries.
	assert.Equal(t, int32(1), calls.Load())
}

func TestEstimate_UpstreamTimeoutFallsBack(t *testing.T) {
	svc, _ := newEstimator(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, completionEnvelope(`{"results":[{"name":"late","calories":1}]}`))
	})
	svc.cfg.Timeout = 50 * time.Millisecond

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "slow soup"})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "slow soup (estimate)", items[0].Name)
}

func TestEstimate_ImageQuery(t *testing.T) {
	var sawImagePart bool
	svc, _ := newEstimator(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		var parts []struct {
			Type     string `json:"type"`
			ImageURL *struct {
				URL string `json:"url"`
			} `json:"image_url"`
		}
		require.NoError(t, json.Unmarshal(req.Messages[1].Content, &parts))
		for _, p := range parts {
			if p.Type == "image_url" && p.ImageURL != nil {
				sawImagePart = true
				assert.Contains(t, p.ImageURL.URL, "data:image/png;base64,")
			}
		}

		fmt.Fprint(w, completionEnvelope(`{"results":[{"name":"banana","calories":105,"protein":1.3,"carbs":27,"fat":0.4,"serving_size":"1 medium"}]}`))
	})

	items, err := svc.Estimate(context.Background(), EstimateInput{
		PromptKind: "image",
		Image:      pngDataURI(),
	})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "banana", items[0].Name)
	assert.True(t, sawImagePart, "upstream request must carry the image part")
}

func TestEstimate_ImageFallbackName(t *testing.T) {
	svc, _ := newEstimator(t, replyWith("no idea"))

	items, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "image", Image: pngDataURI()})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Unidentified meal", items[0].Name)
}

func TestEstimate_PreconditionsSkipUpstream(t *testing.T) {
	tests := []struct {
		name  string
		input EstimateInput
	}{
		{"both missing", EstimateInput{}},
		{"whitespace query", EstimateInput{PromptKind: "text", FoodQuery: "   \n\t "}},
		{"text kind without query", EstimateInput{PromptKind: "text", Image: pngDataURI()}},
		{"image kind without image", EstimateInput{PromptKind: "image"}},
		{"bad base64 image", EstimateInput{PromptKind: "image", Image: "data:image/png;base64,!!!"}},
		{"non-image payload", EstimateInput{PromptKind: "image", Image: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text, no pixels here"))}},
		{"unknown kind", EstimateInput{PromptKind: "voice", FoodQuery: "soup"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, calls := newEstimator(t, replyWith(`{"results":[{"name":"x","calories":1}]}`))

			_, err := svc.Estimate(context.Background(), tt.input)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, int32(0), calls.Load(), "validation failures must not reach the upstream")
		})
	}
}

func TestEstimate_InferredKind(t *testing.T) {
	svc, _ := newEstimator(t, replyWith(`{"results":[{"name":"apple","calories":95}]}`))

	// No prompt_kind; the populated field decides.
	items, err := svc.Estimate(context.Background(), EstimateInput{FoodQuery: "an apple"})
	require.NoError(t, err)
	assert.Equal(t, "apple", items[0].Name)

	items, err = svc.Estimate(context.Background(), EstimateInput{Image: pngDataURI()})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestEstimate_MissingAPIKey(t *testing.T) {
	svc, calls := newEstimator(t, replyWith(`{"results":[{"name":"x","calories":1}]}`))
	svc.cfg.APIKey = ""

	_, err := svc.Estimate(context.Background(), EstimateInput{PromptKind: "text", FoodQuery: "toast"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Equal(t, int32(0), calls.Load(), "configuration failures must not reach the upstream")
}

func TestEstimate_ReplyReparseIdempotent(t *testing.T) {
	// Feeding an already-clean reply through extraction and validation again
	// yields the same items.
	content := `{"results": [{"name": "Banana", "calories": 105, "protein": 1.3, "carbs": 27, "fat": 0.4, "serving_size": "1 medium"}]}`

	first, err := parseItems("Sure thing! " + content + " Anything else?")
	require.NoError(t, err)

	again, _ := json.Marshal(map[string]any{"results": first})
	second, err := parseItems(string(again))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
