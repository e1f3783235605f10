package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"newsforge/internal/core"
	"newsforge/internal/llm"
	"newsforge/internal/logger"
)

// absolutistPhrases trigger the fallback scan when AI verification is
// unavailable. Each is an unsupportable absolute claim in a news register.
var absolutistPhrases = []string{
	"always",
	"never",
	"guaranteed",
	"definitely",
	"without a doubt",
	"everyone agrees",
	"100%",
}

type verifyResponse struct {
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// Verify checks every DRAFTED topic's article. Valid articles advance the
// topic to VERIFIED; invalid ones leave both topic and article untouched
// so the next run can retry after regeneration. The stage itself only
// fails on storage errors.
func (r *Runner) Verify(ctx context.Context, limit int) (int, error) {
	topics, err := r.Store.ListTopicsByStatus(core.TopicDrafted, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list drafted topics: %w", err)
	}

	verified := 0
	for _, topic := range topics {
		article, err := r.Store.GetArticleByTopic(topic.ID)
		if err != nil {
			return verified, fmt.Errorf("failed to load article for %s: %w", topic.ID, err)
		}
		if article == nil {
			logger.Warn("Drafted topic has no article, skipping verify", "topic", topic.ID)
			continue
		}

		result := r.VerifyArticle(ctx, topic, article.Body)
		if !result.Valid() {
			logger.Warn("Article failed verification, keeping as draft",
				"topic", topic.ID, "issues", len(result.Issues))
			continue
		}

		if err := r.Store.UpdateTopicStatus(topic.ID, core.TopicVerified); err != nil {
			return verified, fmt.Errorf("failed to advance topic %s: %w", topic.ID, err)
		}
		verified++
	}

	return verified, nil
}

// VerifyArticle runs the local structural checks and merges in AI review
// findings. Local findings keep their severity; every AI finding is
// demoted to a warning since the model cannot be the sole gatekeeper.
func (r *Runner) VerifyArticle(ctx context.Context, topic core.Topic, body string) core.VerificationResult {
	var result core.VerificationResult

	if !strings.Contains(body, ":::source") {
		result.Issues = append(result.Issues, core.VerificationIssue{
			Severity: core.SeverityError,
			Message:  "citation block missing",
		})
	}

	if topic.URL != "" && !strings.Contains(body, topic.URL) {
		result.Issues = append(result.Issues, core.VerificationIssue{
			Severity: core.SeverityWarning,
			Message:  "source URL not referenced in body",
		})
	}

	aiResult := r.aiVerify(ctx, topic, body)
	result.Issues = append(result.Issues, aiResult.Issues...)
	result.Suggestions = append(result.Suggestions, aiResult.Suggestions...)

	return result
}

func (r *Runner) aiVerify(ctx context.Context, topic core.Topic, body string) core.VerificationResult {
	raw, err := r.AI.Generate(ctx, llm.TierFast, buildVerifyPrompt(topic, body), llm.Options{
		Temperature: 0.3,
		MaxTokens:   2048,
	})
	if err != nil {
		logger.Warn("AI verification failed, scanning for absolutist phrasing", "topic", topic.ID, "error", err.Error())
		return scanAbsolutistPhrases(body)
	}

	extracted, err := llm.ExtractJSONObject(raw)
	if err != nil {
		// No JSON in the response: treat as a clean review.
		return core.VerificationResult{}
	}

	var parsed verifyResponse
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		return core.VerificationResult{
			Issues: []core.VerificationIssue{
				{Severity: core.SeverityWarning, Message: "verification response could not be parsed"},
			},
		}
	}

	var result core.VerificationResult
	for _, issue := range parsed.Issues {
		result.Issues = append(result.Issues, core.VerificationIssue{
			Severity: core.SeverityWarning,
			Message:  issue,
		})
	}
	result.Suggestions = parsed.Suggestions
	return result
}

// scanAbsolutistPhrases is the deterministic verification fallback.
func scanAbsolutistPhrases(body string) core.VerificationResult {
	lower := strings.ToLower(body)

	var result core.VerificationResult
	for _, phrase := range absolutistPhrases {
		if strings.Contains(lower, phrase) {
			result.Issues = append(result.Issues, core.VerificationIssue{
				Severity: core.SeverityWarning,
				Message:  fmt.Sprintf("absolutist phrasing: %q", phrase),
			})
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("Soften or attribute the claim using %q", phrase))
		}
	}
	return result
}
