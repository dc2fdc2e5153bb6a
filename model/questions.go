package model

import "strings"

// NormalizeQuestions validates conditional rules once, at form creation.
// A conditional whose depends_on is blank, names a question that does not
// exist, or names a divider is discarded here so the evaluator never has to
// deal with dangling references. Running it again on its own output changes
// nothing.
func NormalizeQuestions(questions []Question) []Question {
	byID := make(map[string]QuestionType, len(questions))
	for _, q := range questions {
		byID[q.ID] = q.Type
	}

	out := make([]Question, len(questions))
	for i, q := range questions {
		if c := q.Conditional; c != nil && strings.TrimSpace(c.DependsOn) != "" {
			dependsOn := strings.TrimSpace(c.DependsOn)
			targetType, exists := byID[dependsOn]
			if exists && targetType != TypeDivider {
				q.Conditional = &Conditional{
					DependsOn: dependsOn,
					ShowIf:    c.ShowIf,
				}
				q.IsConditional = true
				out[i] = q
				continue
			}
		}
		q.Conditional = nil
		q.IsConditional = false
		out[i] = q
	}
	return out
}

// ShouldShow decides visibility of a question given the answers gathered so
// far. The same rule runs in the browser and server-side before a submission
// is mapped, so the two can never disagree.
//
// An empty show_if means "show whenever the dependency has any non-blank
// answer". A missing dependency answer hides the question.
func ShouldShow(q Question, answers map[string]string) bool {
	if !q.IsConditional || q.Conditional == nil {
		return true
	}

	answer, ok := answers[q.Conditional.DependsOn]
	if !ok {
		return false
	}
	if q.Conditional.ShowIf != "" {
		return answer == q.Conditional.ShowIf
	}
	return strings.TrimSpace(answer) != ""
}
