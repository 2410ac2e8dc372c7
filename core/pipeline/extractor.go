package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/fusion/helper"
)

// entityPatterns is an ordered set of coarse pattern classes standing in for
// a full NER pipeline: person-like names, organizations, generic proper
// nouns, and a fixed technical-term list.
var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`),                                                 // Person names
	regexp.MustCompile(`\b[A-Z][a-z]+ (?:Inc|Corp|Ltd|LLC|Company)\b`),                                // Organizations
	regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+)*\b`),                                           // Proper nouns
	regexp.MustCompile(`(?i)\b(?:machine learning|artificial intelligence|deep learning|neural network)\b`), // Tech terms
}

// DefaultEntityExtractor creates a pattern-based entity extractor.
// Mentions are deduplicated and returned in first-seen order.
func DefaultEntityExtractor() EntityExtractFunc {
	return func(text string) []string {
		var entities []string
		seen := make(map[string]bool)

		for _, pattern := range entityPatterns {
			for _, match := range pattern.FindAllString(text, -1) {
				if seen[match] {
					continue
				}
				seen[match] = true
				entities = append(entities, match)
			}
		}

		return entities
	}
}

// NEREntityExtractor creates an entity extractor backed by a NER model
// Uses distilbert-NER for named entity recognition
// Detects: PERSON, ORGANIZATION, LOCATION, MISC entities
func NEREntityExtractor() (EntityExtractFunc, error) {
	// Prepare model (download if needed)
	// Using KnightsAnalytics optimized distilbert-NER model
	modelName := "KnightsAnalytics/distilbert-NER"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create token classification pipeline for NER
	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(text string) []string {
		// Run NER on the text
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil || len(result.Entities) == 0 {
			return nil
		}

		var entities []string
		seen := make(map[string]bool)
		for _, entity := range result.Entities[0] {
			name := strings.TrimSpace(entity.Word)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			entities = append(entities, name)
		}

		return entities
	}, nil
}
