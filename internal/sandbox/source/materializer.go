// Package source turns submitted text into a compilable file inside a workspace.
package source

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"javaexec/internal/sandbox/profile"
	"javaexec/internal/sandbox/result"
	"javaexec/internal/sandbox/workspace"
	appErr "javaexec/pkg/errors"
)

// CanonicalClassName is the entry point used for wrapped fragments.
const CanonicalClassName = "UserCode"

const mainSignature = "public static void main"

var classDecl = regexp.MustCompile(`\bclass\s+([A-Za-z_$][A-Za-z0-9_$]*)`)

// EntryPointPolicy selects how the entry-point class is resolved.
type EntryPointPolicy string

const (
	// PolicyStrict requires a "public class <Name>" declaration.
	PolicyStrict EntryPointPolicy = "strict"
	// PolicyAutoWrap wraps bare statements in a generated class.
	PolicyAutoWrap EntryPointPolicy = "autowrap"
)

// ParsePolicy parses a configured policy name.
func ParsePolicy(raw string) (EntryPointPolicy, error) {
	switch EntryPointPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicyStrict:
		return PolicyStrict, nil
	case PolicyAutoWrap, "":
		return PolicyAutoWrap, nil
	default:
		return "", appErr.Newf(appErr.InvalidValue, "unknown entry point policy: %q", raw)
	}
}

// Materializer writes submitted code under a toolchain-conformant name.
type Materializer struct {
	policy    EntryPointPolicy
	toolchain profile.Toolchain
}

// NewMaterializer creates a materializer for one policy.
func NewMaterializer(policy EntryPointPolicy, toolchain profile.Toolchain) *Materializer {
	if policy == "" {
		policy = PolicyAutoWrap
	}
	return &Materializer{policy: policy, toolchain: toolchain.WithDefaults()}
}

// Materialize resolves the entry point and writes the source file. A code
// without a resolvable entry point yields an appErr.NoEntryPoint error.
func (m *Materializer) Materialize(code string, ws *workspace.Workspace) (result.EntryPoint, error) {
	className, content, err := m.resolve(code)
	if err != nil {
		return result.EntryPoint{}, err
	}
	entry := result.EntryPoint{
		ClassName:  className,
		SourceFile: m.toolchain.SourceFile(className),
	}
	if err := ws.WriteFile(entry.SourceFile, []byte(content)); err != nil {
		return result.EntryPoint{}, err
	}
	return entry, nil
}

func (m *Materializer) resolve(code string) (string, string, error) {
	switch m.policy {
	case PolicyStrict:
		name, ok := FindPublicClass(code)
		if !ok {
			return "", "", appErr.New(appErr.NoEntryPoint)
		}
		return name, code, nil
	case PolicyAutoWrap:
		if HasEntryPoint(code) {
			// javac insists a public class lives in a file of the same name.
			if name, ok := FindPublicClass(code); ok {
				return name, code, nil
			}
			if name, ok := FindMainClass(code); ok {
				return name, code, nil
			}
			return CanonicalClassName, code, nil
		}
		return CanonicalClassName, Wrap(code), nil
	default:
		return "", "", appErr.Newf(appErr.InvalidValue, "unknown entry point policy: %q", m.policy)
	}
}

// FindPublicClass returns the name from the first line starting with
// "public class ". Names that are not Java identifiers are rejected.
func FindPublicClass(code string) (string, bool) {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "public class ") {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, "public class "))
		end := strings.IndexFunc(rest, func(r rune) bool {
			return r == '{' || r == '<' || unicode.IsSpace(r)
		})
		if end >= 0 {
			rest = rest[:end]
		}
		if isJavaIdentifier(rest) {
			return rest, true
		}
		return "", false
	}
	return "", false
}

// HasEntryPoint reports whether code already declares a class with a main method.
func HasEntryPoint(code string) bool {
	return strings.Contains(code, "class") && strings.Contains(code, mainSignature)
}

// FindMainClass returns the class declared closest before the first main
// method, which is the class the launcher has to name.
func FindMainClass(code string) (string, bool) {
	idx := strings.Index(code, mainSignature)
	if idx < 0 {
		return "", false
	}
	matches := classDecl.FindAllStringSubmatch(code[:idx], -1)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1][1], true
}

// Wrap places bare statements inside a generated UserCode.main.
func Wrap(code string) string {
	body := strings.ReplaceAll(code, "\n", "\n        ")
	return fmt.Sprintf("public class %s {\n    public static void main(String[] args) {\n        %s\n    }\n}\n",
		CanonicalClassName, body)
}

func isJavaIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || r == '$' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
