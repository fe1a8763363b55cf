package job

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrMissingName   = errors.New("job name is required")
	ErrMissingUrl    = errors.New("job url is required")
	ErrMethodNotPost = errors.New("multipart uploads must use POST")
	ErrFieldName     = errors.New("form field name is required")
	ErrFieldValue    = errors.New("form field cannot have both value and file")
)

type (
	UploadJob struct {
		Name                 string            `json:"name" yaml:"name"`
		Url                  string            `json:"url" yaml:"url"`
		Schedule             string            `json:"schedule" yaml:"schedule"`
		Method               string            `json:"method" yaml:"method"`
		Headers              map[string]string `json:"headers" yaml:"headers"`
		BearerToken          string            `json:"-" yaml:"bearer_token"`
		Fields               []FormField       `json:"fields" yaml:"fields"`
		StandardFraming      bool              `json:"standard_framing" yaml:"standard_framing"`
		MaxRetries           int               `json:"max_retries" yaml:"max_retries"`
		BackoffIsExponential bool              `json:"backoff_is_exponential" yaml:"backoff_is_exponential"`
		BackoffDelay         time.Duration     `json:"backoff_delay" yaml:"backoff_delay"`
	}

	// FormField is a text field when File is empty, a file upload otherwise.
	FormField struct {
		Name  string `json:"name" yaml:"name"`
		Value string `json:"value,omitempty" yaml:"value"`
		File  string `json:"file,omitempty" yaml:"file"`
	}
)

func (f FormField) IsFile() bool {
	return f.File != ""
}

// Validate fills defaults and rejects jobs the uploader cannot send.
func (j *UploadJob) Validate() error {
	if j.Name == "" {
		return ErrMissingName
	}
	if j.Url == "" {
		return fmt.Errorf("job %q: %w", j.Name, ErrMissingUrl)
	}
	if j.Method == "" {
		j.Method = http.MethodPost
	}
	if j.Method != http.MethodPost {
		return fmt.Errorf("job %q: method %s: %w", j.Name, j.Method, ErrMethodNotPost)
	}
	for i, f := range j.Fields {
		if f.Name == "" {
			return fmt.Errorf("job %q: field[%d]: %w", j.Name, i, ErrFieldName)
		}
		if f.Value != "" && f.File != "" {
			return fmt.Errorf("job %q: field %q: %w", j.Name, f.Name, ErrFieldValue)
		}
	}
	if j.MaxRetries < 0 {
		j.MaxRetries = 0
	}
	return nil
}

// Backoff returns the wait before the given retry, starting at 0.
func (j *UploadJob) Backoff(retry int) time.Duration {
	if !j.BackoffIsExponential {
		return j.BackoffDelay
	}
	return j.BackoffDelay << retry
}

// ByName indexes loaded jobs by name.
func ByName(jobs []UploadJob) map[string]UploadJob {
	index := make(map[string]UploadJob, len(jobs))
	for _, j := range jobs {
		index[j.Name] = j
	}
	return index
}

// RestoreSecrets copies credentials that are never serialized, such as the
// bearer token, from the loaded job with the same name.
func (j *UploadJob) RestoreSecrets(loaded map[string]UploadJob) {
	if orig, ok := loaded[j.Name]; ok {
		j.BearerToken = orig.BearerToken
	}
}
