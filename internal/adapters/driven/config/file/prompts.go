package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptSpec is a built-in prompt and the check an edited copy must pass.
type promptSpec struct {
	text  string
	check func(string) error
}

// builtinPrompts are written to the prompt directory on first use and
// served whenever a file is missing or fails its check.
var builtinPrompts = map[string]promptSpec{
	driven.PromptAnswerSystem: {text: domain.AnswerSystemPrompt, check: checkSystemPrompt},
	driven.PromptAnswerUser:   {text: domain.AnswerUserTemplate, check: checkUserTemplate},
}

// ErrInvalidPrompt is returned by the checks for an unusable prompt file.
var ErrInvalidPrompt = errors.New("invalid prompt")

// checkSystemPrompt requires the confidence instruction the assembler parses.
func checkSystemPrompt(text string) error {
	if !strings.Contains(strings.ToLower(text), "confidence") {
		return fmt.Errorf("%w: system prompt must ask for a Confidence line", ErrInvalidPrompt)
	}
	return nil
}

// checkUserTemplate requires exactly the question and sources placeholders.
func checkUserTemplate(text string) error {
	if n := strings.Count(text, "%s"); n != 2 {
		return fmt.Errorf("%w: user template needs 2 %%s placeholders (question, sources), found %d",
			ErrInvalidPrompt, n)
	}
	return nil
}

// PromptStore serves the answer prompts from editable files in a directory,
// falling back to the built-in text. Nothing touches the disk until the
// first Load.
type PromptStore struct {
	dir string

	setup    sync.Once
	setupErr error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at promptDir.
// If promptDir is empty, defaults to ~/.docqa/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, DefaultDirName, "prompts")
	}
	return &PromptStore{dir: promptDir, cache: make(map[string]string)}, nil
}

// Load returns the named prompt. The file wins when it exists and passes
// its check; otherwise the built-in text is returned. Unknown names are
// an error unless a file for them exists.
func (s *PromptStore) Load(name string) (string, error) {
	s.setup.Do(s.writeDefaults)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

func (s *PromptStore) resolve(name string) (string, error) {
	def, builtin := builtinPrompts[name]

	if s.setupErr == nil {
		text, err := s.read(name)
		switch {
		case err == nil && !builtin:
			return text, nil
		case err == nil:
			if checkErr := def.check(text); checkErr != nil {
				logger.Warn("Ignoring %s: %v", s.path(name), checkErr)
				return def.text, nil
			}
			return text, nil
		case !builtin:
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
	}

	if !builtin {
		return "", fmt.Errorf("load prompt %q: %w", name, s.setupErr)
	}
	return def.text, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// writeDefaults creates the directory, any missing built-in prompt files
// and the README. Existing files are never overwritten.
func (s *PromptStore) writeDefaults() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.setupErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for name, def := range builtinPrompts {
		files[name+".txt"] = def.text
	}

	for name, content := range files {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			s.setupErr = fmt.Errorf("create %s: %w", name, err)
			return
		}
	}
}

const promptReadme = `# docqa Prompts

These files shape how questions are answered.

- answer_system.txt: grounding rules sent as the system message
- answer_user.txt: wraps the question and the numbered sources

Edits take effect on the next command, or after restarting the MCP server.

The system prompt must keep the "Confidence: high/medium/low" instruction,
since the answer's confidence is read from that line.

answer_user.txt takes exactly two %s placeholders, the question and then
the sources. A file that breaks either rule is ignored with a warning and
the built-in prompt is used.
`
