package evaluation

import (
	"github.com/evalforge-dev/evalforge/internal/models"
)

// aggregate recomputes every summary field on the evaluation from the full
// result set. Metric means cover only non-null per-item values; a metric no
// item produced stays null rather than becoming zero.
func aggregate(evaluation *models.Evaluation, results []models.Result) {
	total := len(results)
	correct := 0

	for _, result := range results {
		if result.IsCorrect {
			correct++
		}
	}

	accuracy := 0.0
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}

	evaluation.TotalQuestions = total
	evaluation.CorrectAnswers = correct
	evaluation.IncorrectAnswers = total - correct
	evaluation.Accuracy = &accuracy

	evaluation.AvgBleuScore = meanOf(results, func(r models.Result) *float64 { return r.BleuScore })
	evaluation.AvgRouge1Score = meanOf(results, func(r models.Result) *float64 { return r.Rouge1Score })
	evaluation.AvgRouge2Score = meanOf(results, func(r models.Result) *float64 { return r.Rouge2Score })
	evaluation.AvgRougeLScore = meanOf(results, func(r models.Result) *float64 { return r.RougeLScore })
	evaluation.AvgSemanticSimilarity = meanOf(results, func(r models.Result) *float64 { return r.SemanticSimilarity })

	evaluation.AvgResponseTime = meanOf(results, func(r models.Result) *float64 {
		v := float64(r.ResponseTime)
		return &v
	})
}

// meanOf averages the non-null values a selector extracts from the results.
// It returns nil when no result produced a value.
func meanOf(results []models.Result, pick func(models.Result) *float64) *float64 {
	sum := 0.0
	count := 0

	for _, result := range results {
		if v := pick(result); v != nil {
			sum += *v
			count++
		}
	}

	if count == 0 {
		return nil
	}

	mean := sum / float64(count)
	return &mean
}
