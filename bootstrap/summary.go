package bootstrap

import (
	"fmt"
	"io"
	"time"
)

// Setting is one line of the startup summary.
type Setting struct {
	Name  string
	Value string
}

// Summary tracks the effective settings of the application and renders them
// before the task starts.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	settings        []Setting
}

// NewSummary creates a new startup summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		settings:    make([]Setting, 0),
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Track records a setting. Values are rendered with %v.
func (s *Summary) Track(name string, value any) {
	s.settings = append(s.settings, Setting{Name: name, Value: fmt.Sprintf("%v", value)})
}

// Settings returns the tracked settings in insertion order.
func (s *Summary) Settings() []Setting {
	return s.settings
}

// Write renders the summary as a tree.
func (s *Summary) Write(w io.Writer) {
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "%s %s ready in %s\n", s.serviceName, version, s.startupDuration.Round(time.Microsecond))
	for i, st := range s.settings {
		fmt.Fprintf(w, "   %s %s: %s\n", treePrefix(i, len(s.settings)), st.Name, st.Value)
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
