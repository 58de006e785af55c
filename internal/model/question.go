package model

// Question is one Likert prompt in a category's catalog.
type Question struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Metric string `json:"metric"` // sub-metric key, e.g. "trust"
	// Weight is reserved for intra-metric weighting and is currently
	// always 1; the scoring mean is unweighted.
	Weight int `json:"weight"`
}

// MetricWeight pairs a sub-metric key with its share of the total score.
// The order of a category's weights fixes the breakdown order.
type MetricWeight struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// Response records the answer given to a single question. A later answer
// for the same question replaces the earlier one.
type Response struct {
	QuestionID  string      `json:"questionId"`
	AnswerValue AnswerScale `json:"answerValue"`
}
