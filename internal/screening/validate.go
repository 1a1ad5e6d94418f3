package screening

// RequiredAnswerMessage is reported for every required question left empty.
const RequiredAnswerMessage = "This question requires an answer"

// ValidationError is a candidate-data problem the candidate can fix by
// resubmitting.
type ValidationError struct {
	QuestionID string `json:"questionId"`
	Message    string `json:"message"`
}

func validate(questions []Question, answers map[string]Value) []ValidationError {
	var errs []ValidationError
	for i := range questions {
		q := &questions[i]
		if !q.IsRequired {
			continue
		}
		if answers[q.ID].IsEmpty() {
			errs = append(errs, ValidationError{QuestionID: q.ID, Message: RequiredAnswerMessage})
		}
	}
	return errs
}
