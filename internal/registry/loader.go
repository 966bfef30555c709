package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/pkg/util"
)

type registryFile struct {
	Departments []departmentEntry `yaml:"departments"`
}

type departmentEntry struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	SLAHours int      `yaml:"sla_hours"`
	Contact  string   `yaml:"contact"`
}

// Load builds the registry from a YAML file, or from the built-in
// defaults when path is empty. The YAML sequence order is preserved so
// declaration-order tie-breaks survive a file override.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New(Defaults())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, util.NewConfigurationError(fmt.Sprintf("reading registry file %s", path), err)
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, util.NewConfigurationError(fmt.Sprintf("parsing registry file %s", path), err)
	}

	departments := make([]domain.Department, 0, len(file.Departments))
	for _, entry := range file.Departments {
		departments = append(departments, domain.Department{
			ID:       entry.ID,
			Name:     entry.Name,
			Keywords: entry.Keywords,
			SLAHours: entry.SLAHours,
			Contact:  entry.Contact,
		})
	}
	return New(departments)
}
