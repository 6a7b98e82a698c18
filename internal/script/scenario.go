package script

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HeaderTarget is the proxy name steps use when "on" is omitted.
const HeaderTarget = "header"

// Scenario is a scripted walk over one header.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Header is the path of a YAML header manifest, relative to the
	// scenario file. Tags describes the header inline instead.
	Header string               `yaml:"header,omitempty"`
	Tags   map[string]yaml.Node `yaml:"tags,omitempty"`

	// Locales are the preferred POSIX locales for I18N strings.
	Locales []string `yaml:"locales,omitempty"`

	// Debug sets the initial proxy debug levels.
	Debug DebugLevels `yaml:"debug,omitempty"`

	Steps []Step `yaml:"steps"`
}

// DebugLevels are the initial header and deps debug levels.
type DebugLevels struct {
	Header int `yaml:"header,omitempty"`
	Deps   int `yaml:"deps,omitempty"`
}

// Step is one proxy operation.
type Step struct {
	Op string `yaml:"op"`
	On string `yaml:"on,omitempty"`

	// Name is the property for get, set and resolve.
	Name string `yaml:"name,omitempty"`

	// Tag selects the header tag a deps step reads, or the set type of a
	// literal source.
	Tag string `yaml:"tag,omitempty"`

	// Source is a keyword or an [N, EVR, F] literal for a deps step.
	Source *yaml.Node `yaml:"source,omitempty"`

	// Value is assigned by set and setorigin.
	Value *yaml.Node `yaml:"value,omitempty"`

	// Index is the position for seek and index.
	Index int `yaml:"index,omitempty"`

	// Format is the query format for sprintf.
	Format string `yaml:"format,omitempty"`

	// As names the proxy a deps step creates.
	As string `yaml:"as,omitempty"`

	Expect *yaml.Node `yaml:"expect,omitempty"`
	Absent bool       `yaml:"absent,omitempty"`
	Error  string     `yaml:"error,omitempty"`
}

// Step operations.
const (
	OpGet       = "get"
	OpSet       = "set"
	OpResolve   = "resolve"
	OpKeys      = "keys"
	OpSprintf   = "sprintf"
	OpOrigin    = "origin"
	OpSetOrigin = "setorigin"
	OpDeps      = "deps"
	OpSeek      = "seek"
	OpNext      = "next"
	OpInit      = "init"
	OpIndex     = "index"
	OpCount     = "count"
	OpClose     = "close"
)

var knownOps = map[string]bool{
	OpGet: true, OpSet: true, OpResolve: true, OpKeys: true,
	OpSprintf: true, OpOrigin: true, OpSetOrigin: true, OpDeps: true,
	OpSeek: true, OpNext: true, OpInit: true, OpIndex: true,
	OpCount: true, OpClose: true,
}

// LoadScenario reads and validates a scenario file. The header path is
// resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Header == "" {
		return s, nil
	}
	if !filepath.IsAbs(s.Header) {
		s.Header = filepath.Join(filepath.Dir(path), s.Header)
	}
	if _, err := os.Stat(s.Header); err != nil {
		return nil, fmt.Errorf("invalid scenario: header fixture: %w", err)
	}
	return s, nil
}

// ParseScenario decodes a scenario document. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Header == "") == (len(s.Tags) == 0) {
		return fmt.Errorf("exactly one of header and tags is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, st *Step) error {
	if !knownOps[st.Op] {
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	if st.Expect != nil && st.Absent {
		return fmt.Errorf("steps[%d]: expect and absent are exclusive", i)
	}

	switch st.Op {
	case OpGet, OpResolve:
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for %s", i, st.Op)
		}
	case OpSet:
		if st.Name == "" || st.Value == nil {
			return fmt.Errorf("steps[%d]: name and value are required for set", i)
		}
	case OpSetOrigin:
		if st.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for setorigin", i)
		}
	case OpSprintf:
		if st.Format == "" {
			return fmt.Errorf("steps[%d]: format is required for sprintf", i)
		}
	case OpDeps:
		if st.As == "" || st.As == HeaderTarget {
			return fmt.Errorf("steps[%d]: deps needs an as name other than %q", i, HeaderTarget)
		}
		if st.Tag == "" && st.Source == nil {
			return fmt.Errorf("steps[%d]: deps needs a tag or a source", i)
		}
	}
	return nil
}
