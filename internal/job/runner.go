package job

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dpe27/esk-upload/internal/httpclient"
	"github.com/dpe27/esk-upload/pkg/log"
	"github.com/dpe27/esk-upload/pkg/multipart"
	"github.com/dpe27/esk-upload/pkg/nethttp"
	"github.com/dpe27/esk-upload/pkg/utils"
)

type JobRunner struct {
	cli    httpclient.HttpClient
	logger *log.Logger
	job    *UploadJob
	loc    *time.Location
}

func NewJobRunner(job *UploadJob, client httpclient.HttpClient, loc *time.Location) *JobRunner {
	if loc == nil {
		loc = time.Local
	}
	return &JobRunner{
		logger: log.With("job", job.Name),
		job:    job,
		cli:    client,
		loc:    loc,
	}
}

// Run uploads the job's form, retrying up to MaxRetries times. Every attempt
// reopens the files, since a streamed body cannot be replayed.
func (r *JobRunner) Run(ctx context.Context) (time.Time, error) {
	r.logger.Info(ctx, "Starting job", "url", r.job.Url, "fields", len(r.job.Fields))

	var (
		err       error
		lastTried time.Time
	)
	for i := 0; i <= r.job.MaxRetries; i++ {
		if i > 0 {
			if waitErr := r.wait(ctx, r.job.Backoff(i-1)); waitErr != nil {
				return lastTried, waitErr
			}
		}
		lastTried = time.Now().In(r.loc)

		err = r.execute(ctx)
		if err == nil {
			return lastTried, nil
		}
		r.logger.Error(ctx, "Job execution failed", "attempt", i+1, "error", err, "last_tried", lastTried)
	}

	r.logger.Error(ctx, "Job failed after maximum retries", "max_retries", r.job.MaxRetries)
	return lastTried, fmt.Errorf("job %q failed after %d attempts: %w", r.job.Name, r.job.MaxRetries+1, err)
}

func (r *JobRunner) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *JobRunner) execute(ctx context.Context) error {
	files, err := openFiles(r.job.Fields)
	if err != nil {
		r.logger.Error(ctx, utils.ErrorOpenFile, "error", err)
		return err
	}
	defer func() {
		if err := closeFiles(files); err != nil {
			r.logger.Warn(ctx, utils.ErrorCloseFile, "error", err)
		}
	}()

	form := r.buildForm(files)

	opts := httpclient.ReqOptBuilder().
		Log().
		LogResBodyOnlyError().
		Build()
	req, err := httpclient.NewFreshRequest(ctx, r.cli, r.job.Method, r.job.Url, opts)
	if err != nil {
		r.logger.Error(ctx, utils.ErrorCreateRequest, "error", err)
		return err
	}
	for k, v := range r.job.Headers {
		req.Header().Set(k, v)
	}
	if r.job.BearerToken != "" {
		req.Header().Set(nethttp.HeaderAuthorization, nethttp.AuthSchemeBearer+r.job.BearerToken)
	}

	resp, err := form.Send(req)
	if err != nil {
		r.logger.Error(ctx, utils.ErrorSendUpload, "error", err, "boundary", form.Boundary())
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.logger.Error(ctx, utils.ErrorCloseResponseBody, "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			r.logger.Error(ctx, utils.ErrorReadBody, "error", err)
		}
		return fmt.Errorf("job %q failed with status code %d: %s", r.job.Name, resp.StatusCode, string(respBody))
	}

	r.logger.Info(ctx, "Job completed successfully", "status_code", resp.StatusCode)
	return nil
}

// buildForm adds the fields in job order. files holds one open file per
// file field, in the same order.
func (r *JobRunner) buildForm(files []*os.File) *multipart.Multipart {
	var opts []multipart.Option
	if r.job.StandardFraming {
		opts = append(opts, multipart.WithStandardFraming())
	}
	form := multipart.New(opts...)

	next := 0
	for _, f := range r.job.Fields {
		if f.IsFile() {
			form.AddFile(f.Name, files[next])
			next++
			continue
		}
		form.AddText(f.Name, f.Value)
	}
	return form
}

func openFiles(fields []FormField) ([]*os.File, error) {
	var files []*os.File
	for _, f := range fields {
		if !f.IsFile() {
			continue
		}
		file, err := os.Open(f.File)
		if err != nil {
			if closeErr := closeFiles(files); closeErr != nil {
				err = multierror.Append(err, closeErr)
			}
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		files = append(files, file)
	}
	return files, nil
}

func closeFiles(files []*os.File) error {
	var result *multierror.Error
	for _, f := range files {
		if err := f.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", f.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
