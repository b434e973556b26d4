package dto

type SubmissionResult struct {
	Accepted   bool
	StatusCode int
	Detail     string
}
