// -----------------------------------------------------------------------
// Analyst response parsing - fenced YAML extraction and lenient mapping
// into the Analysis model
// -----------------------------------------------------------------------

package llm

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/counsel/internal/models"
)

// metricAssessment is one metric's entry in the analyst YAML response.
type metricAssessment struct {
	Rating string `yaml:"rating" validate:"required"`
	Reason string `yaml:"reason"`
}

// analystResponse is the YAML document analysts are prompted to produce.
type analystResponse struct {
	Metrics           map[string]metricAssessment `yaml:"metrics" validate:"required,min=1"`
	FinancialStrength string                      `yaml:"financial_strength" validate:"required"`
	Summary           string                      `yaml:"summary"`
}

var responseValidator = validator.New()

// extractYAML pulls the YAML document out of a response that may carry
// markdown fencing.
func extractYAML(response string) string {
	yamlContent := response
	if strings.Contains(response, "```yaml") {
		start := strings.Index(response, "```yaml") + 7
		end := strings.LastIndex(response, "```")
		if end > start {
			yamlContent = response[start:end]
		}
	} else if strings.Contains(response, "```") {
		start := strings.Index(response, "```") + 3
		end := strings.LastIndex(response, "```")
		if end > start {
			yamlContent = response[start:end]
		}
	}
	return yamlContent
}

// ParseAnalysisResponse parses an analyst's YAML response into an
// Analysis. Unknown metric keys are ignored and absent metrics stay
// empty, surfacing downstream as missing data; only a structurally
// unusable document is an error.
func ParseAnalysisResponse(analyst, ticker, response string) (*models.Analysis, error) {
	var parsed analystResponse
	if err := yaml.Unmarshal([]byte(extractYAML(response)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse analyst YAML: %w", err)
	}

	if err := responseValidator.Struct(&parsed); err != nil {
		return nil, fmt.Errorf("analyst response failed validation: %w", err)
	}

	analysis := &models.Analysis{
		Analyst:           analyst,
		Ticker:            ticker,
		Ratings:           make(map[models.Metric]string),
		Reasons:           make(map[models.Metric]string),
		FinancialStrength: parsed.FinancialStrength,
		Summary:           parsed.Summary,
	}

	for _, metric := range models.AllMetrics() {
		entry, ok := parsed.Metrics[string(metric)]
		if !ok {
			continue
		}
		analysis.Ratings[metric] = entry.Rating
		analysis.Reasons[metric] = entry.Reason
	}

	return analysis, nil
}
