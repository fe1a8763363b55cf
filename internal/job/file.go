package job

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const JobsDirPath = "jobs"

// LoadJobsFromDir reads every *.yml and *.yaml file below dir. Relative
// file paths in form fields are resolved against the job file's directory.
func LoadJobsFromDir(dir string) ([]UploadJob, error) {
	if dir == "" {
		dir = JobsDirPath
	}

	var jobs []UploadJob
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !(filepath.Ext(path) == ".yml" || filepath.Ext(path) == ".yaml") {
			return nil
		}

		job, err := LoadJobFile(path)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	}); err != nil {
		return nil, err
	}
	return jobs, nil
}

func LoadJobFile(path string) (UploadJob, error) {
	var job UploadJob

	data, err := os.ReadFile(path)
	if err != nil {
		return job, err
	}
	if err := yaml.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("%s: %w", path, err)
	}
	if err := job.Validate(); err != nil {
		return job, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, f := range job.Fields {
		if f.IsFile() && !filepath.IsAbs(f.File) {
			job.Fields[i].File = filepath.Join(base, f.File)
		}
	}
	return job, nil
}
