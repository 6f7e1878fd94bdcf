package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/llumina/backend/internal/models"
	"github.com/llumina/backend/internal/schema"
)

const (
	// maxDiscoveryCategories bounds how much of the library's topic
	// distribution is sampled into the discovery prompt.
	maxDiscoveryCategories = 5
	// maxSuggestions bounds the advisory result set.
	maxSuggestions = 3
)

// GroundedGenerator is the subset of the inference client used for discovery.
type GroundedGenerator interface {
	GenerateGroundedJSON(ctx context.Context, prompt string) ([]byte, error)
}

// defaultSuggestions keeps the discovery surface usable when the provider
// answer cannot be parsed. Advisory output degrades, it never fails.
var defaultSuggestions = []models.Suggestion{
	{Title: "The Art of Doing Science and Engineering", Creator: "Stripe Press", URL: "https://www.youtube.com/results?search_query=hamming+you+and+your+research"},
	{Title: "How Technology Shapes Thought", Creator: "Long Now Foundation", URL: "https://www.youtube.com/results?search_query=long+now+seminars"},
	{Title: "Deep Work in a Distracted World", Creator: "Cal Newport", URL: "https://www.youtube.com/results?search_query=cal+newport+deep+work"},
}

// Advisor suggests related external content based on the library's topic
// distribution. It is read-only with respect to the library.
type Advisor struct {
	client    GroundedGenerator
	validator *schema.Validator
	logger    *slog.Logger
}

// NewAdvisor constructs a discovery advisor backed by the given client.
func NewAdvisor(client GroundedGenerator, validator *schema.Validator, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{client: client, validator: validator, logger: logger}
}

// Discover asks the provider, in web-grounded mode, for a small set of
// resources related to the categories present in the library. An empty library
// fails with ErrEmptyCorpus before any network call; a malformed provider
// answer degrades to the default suggestion set instead of failing.
func (a *Advisor) Discover(ctx context.Context, records []models.VideoRecord) ([]models.Suggestion, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCorpus
	}

	categories := sampleCategories(records, maxDiscoveryCategories)
	if len(categories) == 0 {
		categories = []string{GeneralCategory}
	}

	prompt := fmt.Sprintf(
		"Using current web results, recommend exactly %d interesting videos related to these topics: %s. "+
			"Respond with only a JSON array of objects, each with string fields \"title\", \"creator\" and \"url\".",
		maxSuggestions, strings.Join(categories, ", "))

	out, err := a.client.GenerateGroundedJSON(ctx, prompt)
	if err != nil {
		a.logger.Warn("discovery provider call failed, using defaults", "error", err)
		return fallbackSuggestions(), nil
	}

	suggestions, err := a.parse(out)
	if err != nil {
		a.logger.Warn("discovery response unusable, using defaults", "error", err)
		return fallbackSuggestions(), nil
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

func (a *Advisor) parse(out []byte) ([]models.Suggestion, error) {
	// Grounded responses are not schema-constrained; the array may arrive
	// wrapped in markdown fences or surrounding prose.
	raw := extractJSONArray(out)
	if raw == nil {
		return nil, fmt.Errorf("no JSON array in response")
	}

	if a.validator != nil {
		if err := a.validator.ValidateSuggestions(raw); err != nil {
			return nil, err
		}
	}

	var suggestions []models.Suggestion
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("empty suggestion array")
	}
	return suggestions, nil
}

func extractJSONArray(out []byte) []byte {
	s := string(out)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil
	}
	return []byte(s[start : end+1])
}

func sampleCategories(records []models.VideoRecord, limit int) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, rec := range records {
		cat := strings.TrimSpace(rec.Metadata.Category)
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		categories = append(categories, cat)
		if len(categories) == limit {
			break
		}
	}
	return categories
}

func fallbackSuggestions() []models.Suggestion {
	out := make([]models.Suggestion, len(defaultSuggestions))
	copy(out, defaultSuggestions)
	return out
}
