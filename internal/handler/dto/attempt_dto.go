package dto

// SubmitAttemptRequest is the submission boundary payload produced by the
// practice UI after a learner completes (or abandons) a quiz attempt.
type SubmitAttemptRequest struct {
	BankID           string `json:"bank_id" binding:"required"`
	BankName         string `json:"bank_name"`
	Subject          string `json:"subject" binding:"required"`
	TotalQuestions   int    `json:"total_questions" binding:"required"`
	CorrectAnswers   int    `json:"correct_answers"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	Percentage       int    `json:"percentage"`
}
