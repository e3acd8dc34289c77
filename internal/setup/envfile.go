package setup

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/deixis/devsetup/internal/report"
)

// BootstrapEnvFile creates the environment file from its template when
// it does not exist yet. An existing file is never touched.
func (e *Engine) BootstrapEnvFile() report.Step {
	out := e.out()
	out.Section("⚙️ Setting up environment configuration...")
	step := report.Step{Name: "env"}

	target := e.Config.EnvFile()
	template := e.Config.EnvTemplate()

	if _, err := os.Stat(e.path(target)); err == nil {
		out.Pass(target + " file already exists")
		return passed(step, target+" already exists")
	} else if !errors.Is(err, fs.ErrNotExist) {
		out.Fail(fmt.Sprintf("Cannot inspect %s: %v", target, err))
		return failed(step, err.Error())
	}

	data, err := os.ReadFile(e.path(template))
	if errors.Is(err, fs.ErrNotExist) {
		out.Fail("No " + template + " file found")
		return failed(step, fmt.Sprintf("neither %s nor %s exists", target, template))
	} else if err != nil {
		out.Fail(fmt.Sprintf("Cannot read %s: %v", template, err))
		return failed(step, err.Error())
	}

	if err := e.writeNew(target, template, data); err != nil {
		out.Fail(fmt.Sprintf("Failed to create %s: %v", target, err))
		return failed(step, err.Error())
	}

	out.Pass(fmt.Sprintf("Created %s file from %s", target, template))
	out.Warn(fmt.Sprintf("Please update %s file with your actual API keys", target))
	if empty := emptyKeys(data); len(empty) > 0 {
		out.Info("Unset: " + strings.Join(empty, ", "))
	}
	return passed(step, "created from "+template)
}

// writeNew writes data to target, failing if target appeared meanwhile.
// The file takes the template's permissions.
func (e *Engine) writeNew(target, template string, data []byte) error {
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(e.path(template)); err == nil {
		perm = info.Mode().Perm()
	}

	f, err := os.OpenFile(e.path(target), os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(e.path(target))
		return err
	}
	return f.Close()
}

// emptyKeys lists the variables in an env file that have no value.
func emptyKeys(data []byte) []string {
	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Env template is not parseable", "error", err)
		return nil
	}
	var keys []string
	for k, v := range env {
		if strings.TrimSpace(v) == "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
