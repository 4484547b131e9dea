package server

import (
	"time"

	"github.com/nerdneilsfield/go-doc-translator/internal/job"
)

// JobResponse is the JSON form of a job.
type JobResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	Progress  float64   `json:"progress"`
	Message   *string   `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ResultURL *string   `json:"result_url"`
}

// NewJobResponse converts j. ResultURL is only set once the job completed.
func NewJobResponse(j job.Job) JobResponse {
	resp := JobResponse{
		ID:        j.ID,
		Filename:  j.Filename,
		Status:    string(j.Status),
		Progress:  j.Progress,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.Message != "" {
		msg := j.Message
		resp.Message = &msg
	}
	if j.HasResult() {
		url := ResultURL(j.ID)
		resp.ResultURL = &url
	}
	return resp
}

// ResultURL is the download path of a job's translated file.
func ResultURL(id string) string {
	return "/api/jobs/" + id + "/result"
}
