// Package profile defines the toolchain used to compile and run a submission.
package profile

import (
	"path/filepath"
	"strconv"
	"strings"

	appErr "javaexec/pkg/errors"

	"github.com/google/shlex"
)

const (
	DefaultCompileCmdTpl = "javac -encoding UTF-8 -cp {workdir} {src}"
	DefaultRunCmdTpl     = "java -Xmx{memory}m -cp {workdir} {class}"
	DefaultSourceExt     = ".java"
)

// Toolchain defines how to compile and run a submission.
// Templates accept {src}, {class}, {workdir} and {memory} placeholders.
type Toolchain struct {
	ID            string   `yaml:"id"`
	SourceExt     string   `yaml:"sourceExt"`
	CompileCmdTpl string   `yaml:"compileCmd"`
	RunCmdTpl     string   `yaml:"runCmd"`
	Env           []string `yaml:"env"`
}

// DefaultToolchain returns the JDK toolchain.
func DefaultToolchain() Toolchain {
	return Toolchain{
		ID:            "java",
		SourceExt:     DefaultSourceExt,
		CompileCmdTpl: DefaultCompileCmdTpl,
		RunCmdTpl:     DefaultRunCmdTpl,
	}
}

// WithDefaults fills empty fields from DefaultToolchain.
func (t Toolchain) WithDefaults() Toolchain {
	def := DefaultToolchain()
	if t.ID == "" {
		t.ID = def.ID
	}
	if t.SourceExt == "" {
		t.SourceExt = def.SourceExt
	}
	if strings.TrimSpace(t.CompileCmdTpl) == "" {
		t.CompileCmdTpl = def.CompileCmdTpl
	}
	if strings.TrimSpace(t.RunCmdTpl) == "" {
		t.RunCmdTpl = def.RunCmdTpl
	}
	return t
}

// SourceFile returns the toolchain-conformant file name for a class.
func (t Toolchain) SourceFile(className string) string {
	ext := t.SourceExt
	if ext == "" {
		ext = DefaultSourceExt
	}
	return className + ext
}

// CommandVars carries placeholder values for one command expansion.
type CommandVars struct {
	WorkDir   string
	Source    string
	ClassName string
	MemoryMB  int
}

// CompileCommand expands the compile template.
func (t Toolchain) CompileCommand(vars CommandVars) ([]string, error) {
	return BuildCommand(t.CompileCmdTpl, vars)
}

// RunCommand expands the run template.
func (t Toolchain) RunCommand(vars CommandVars) ([]string, error) {
	return BuildCommand(t.RunCmdTpl, vars)
}

// BuildCommand splits tpl into argv and substitutes placeholders per
// argument, so workspace paths containing spaces stay a single argument.
func BuildCommand(tpl string, vars CommandVars) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	fields, err := shlex.Split(tpl)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	source := vars.Source
	if source != "" && vars.WorkDir != "" && !filepath.IsAbs(source) {
		source = filepath.Join(vars.WorkDir, source)
	}
	replacer := strings.NewReplacer(
		"{workdir}", vars.WorkDir,
		"{src}", source,
		"{class}", vars.ClassName,
		"{memory}", strconv.Itoa(vars.MemoryMB),
	)
	for i, field := range fields {
		fields[i] = replacer.Replace(field)
	}
	return fields, nil
}
