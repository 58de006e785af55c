package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/config"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

// Fallback advice strings. Both are neutral and non-diagnostic; one covers a
// generator that is not configured or unreachable, the other an empty reply.
const (
	adviceFallback      = "Reflect on areas with lower scores and consider open dialogue as a first step toward understanding."
	adviceEmptyFallback = "Continue focusing on open communication and mutual respect."
)

// AdviceService generates reflective guidance for a finished evaluation via
// the Gemini API. It never returns an error: any failure degrades to a
// static fallback string so the presentation layer always has text to show.
type AdviceService struct {
	config *config.AIConfig
	client *http.Client
}

// NewAdviceService creates a new advice service
func NewAdviceService() *AdviceService {
	cfg := config.DefaultAIConfig()
	return &AdviceService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// GenerateAdvice returns three short reflective bullet points for the result.
func (s *AdviceService) GenerateAdvice(ctx context.Context, result *model.EvaluationResult) string {
	if !s.config.IsEnabled() {
		return adviceFallback
	}

	text, err := s.callGemini(ctx, s.buildAdvicePrompt(result))
	if err != nil {
		return adviceFallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return adviceEmptyFallback
	}
	return text
}

func (s *AdviceService) buildAdvicePrompt(result *model.EvaluationResult) string {
	breakdownParts := make([]string, 0, len(result.CategoryBreakdown))
	for _, c := range result.CategoryBreakdown {
		breakdownParts = append(breakdownParts, fmt.Sprintf("%s: %d%%", c.Name, c.Score))
	}

	contextLine := ""
	if meta := result.Metadata; meta != nil {
		contextLine = fmt.Sprintf("Relationship Details: Subtype: %s, Duration: %d months, Closeness: %d/10, Living Situation: %s",
			meta.Subtype, meta.DurationMonths, meta.ClosenessLevel, meta.LivingSituation)
	}

	return fmt.Sprintf(`Context: A user just completed a relationship evaluation for a %s relationship labeled "%s".
%s
Total Score: %d%%
Breakdown: %s

Task: Provide 3 short, neutral, and reflective bullet points of advice based on these scores and the relationship context.
Guidelines:
- Be supportive but neutral.
- Do not make psychological claims or diagnoses.
- Focus on communication, boundaries, and mutual respect.
- Consider the duration and living situation if provided (e.g., long-term vs new connection).
- Keep it under 150 words.
- Return ONLY the bullet points.`,
		result.RelationshipCategory, result.RelationshipLabel, contextLine,
		result.TotalScore, strings.Join(breakdownParts, ", "))
}

// callGemini makes a request to the Gemini API
func (s *AdviceService) callGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}
