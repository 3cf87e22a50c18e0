package pipeline

// BatchRequest is one team submission: questions grouped by category, each
// keyed by its question ID.
type BatchRequest struct {
	Team      string                       `json:"equipe"`
	Questions map[string]map[string]string `json:"question"`
	TopK      int                          `json:"top_k,omitempty"`
}

// QuestionAnswer is the pipeline output for one batch question.
type QuestionAnswer struct {
	Question   string         `json:"question"`
	Results    []ResultRecord `json:"results,omitempty"`
	Layer      string         `json:"layer,omitempty"`
	Confidence string         `json:"confidence,omitempty"`
	Intent     string         `json:"intent,omitempty"`
	Language   string         `json:"language,omitempty"`
	Degraded   []string       `json:"degraded,omitempty"`
	Context    string         `json:"context,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ResultRecord is one ranked document in a response payload.
type ResultRecord struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

// BatchResponse mirrors the request structure with answers per question ID.
type BatchResponse struct {
	Team    string                                `json:"equipe"`
	Answers map[string]map[string]QuestionAnswer  `json:"answers"`
}

func toQuestionAnswer(question string, ans Answer) QuestionAnswer {
	records := make([]ResultRecord, 0, len(ans.Results))
	for i := range ans.Results {
		r := &ans.Results[i]
		records = append(records, ResultRecord{DocumentID: r.ID(), Score: r.Score()})
	}
	return QuestionAnswer{
		Question:   question,
		Results:    records,
		Layer:      string(ans.Layer),
		Confidence: string(ans.Confidence),
		Intent:     string(ans.Intent),
		Language:   string(ans.Language),
		Degraded:   ans.Degraded,
		Context:    ans.Context,
	}
}
