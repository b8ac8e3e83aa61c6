package deps

import (
	"errors"
	"fmt"
	"strings"

	"pixy/internal/services"
)

// Requirement defines an external tool pixy relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements with the default resolver.
func CheckBinaries(requirements []Requirement) []Status {
	return defaultResolver.CheckBinaries(requirements)
}

// CheckBinaries evaluates the provided requirements and reports availability.
func (r *Resolver) CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := r.Resolve(cmd)
		if err != nil {
			if errors.Is(err, services.ErrCommandNotFound) {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Detail = err.Error()
			}
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		results = append(results, status)
	}
	return results
}
