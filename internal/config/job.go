package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job describes a command to run. Example job file:
//
//	command: ["make", "test"]
//	dir: ./project
//	env:
//	  GOFLAGS: -count=1
//	clean_env: false
type Job struct {
	Command  []string          `yaml:"command"`
	Dir      string            `yaml:"dir,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`
	CleanEnv bool              `yaml:"clean_env,omitempty"` // don't inherit the environment
}

// LoadJob reads a job file. A relative dir is resolved against the
// directory of the job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	job, err := ParseJob(data)
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	if job.Dir != "" && !filepath.IsAbs(job.Dir) {
		job.Dir = filepath.Join(filepath.Dir(path), job.Dir)
	}
	return job, nil
}

// ParseJob parses and validates a job in YAML. Unknown keys are rejected.
func ParseJob(data []byte) (*Job, error) {
	var job Job
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

func (j *Job) Validate() error {
	if len(j.Command) == 0 || j.Command[0] == "" {
		return errors.New("job has no command")
	}
	for key := range j.Env {
		if key == "" || strings.Contains(key, "=") {
			return fmt.Errorf("invalid environment variable name %q", key)
		}
	}
	return nil
}

// Cmd builds the command. Variables from Env override inherited ones.
func (j *Job) Cmd() *exec.Cmd {
	cmd := exec.Command(j.Command[0], j.Command[1:]...)
	cmd.Dir = j.Dir

	if !j.CleanEnv && len(j.Env) == 0 {
		return cmd
	}
	var env []string
	if !j.CleanEnv {
		env = os.Environ()
	}
	keys := make([]string, 0, len(j.Env))
	for key := range j.Env {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		env = append(env, key+"="+j.Env[key])
	}
	// An empty non-nil slice keeps exec from inheriting the environment
	if env == nil {
		env = []string{}
	}
	cmd.Env = env
	return cmd
}

// String renders the command the way it would be typed into a shell
func (j *Job) String() string {
	return ShellJoin(j.Command)
}

// ShellJoin quotes args where needed and joins them with spaces
func ShellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg != "" && !strings.ContainsAny(arg, " \t\n\"'\\$`|&;<>()*?[]{}~#!") {
			quoted[i] = arg
			continue
		}
		quoted[i] = strconv.Quote(arg)
	}
	return strings.Join(quoted, " ")
}
