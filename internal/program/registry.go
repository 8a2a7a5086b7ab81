// Package program holds the remotely managed mentorship program
// configuration: which repositories participate, who the maintainers are and
// their limits, and the comment message catalog. Both documents live as YAML
// files in a config repository on the forge and are fetched through the
// contents API.
package program

import "gopkg.in/yaml.v3"

// Maintainer grants a user mentor rights for one repository.
// MaxScore bounds the score a task they create may carry; TaskCap bounds how
// many non-terminal tasks they may hold as mentor at once.
type Maintainer struct {
	ID       string `yaml:"id"`
	MaxScore int    `yaml:"maxScore"`
	TaskCap  int    `yaml:"task"`
}

// Repo registers one repository in the program.
type Repo struct {
	Name        string       `yaml:"name"` // full name, owner/repo
	Maintainers []Maintainer `yaml:"maintainers"`
}

// Registry is the set of registered repositories. Repositories not listed
// here are unknown to the bot.
type Registry struct {
	Repos []Repo `yaml:"repos"`
}

// Repo looks up a registered repository by full name.
func (r *Registry) Repo(fullName string) (*Repo, bool) {
	for i := range r.Repos {
		if r.Repos[i].Name == fullName {
			return &r.Repos[i], true
		}
	}
	return nil, false
}

// Maintainer resolves login to a maintainer record for the given repository.
// A login not listed is never a mentor there, regardless of any forge-level
// permission the user may hold.
func (r *Registry) Maintainer(repoFullName, login string) (*Maintainer, bool) {
	repo, ok := r.Repo(repoFullName)
	if !ok {
		return nil, false
	}
	for i := range repo.Maintainers {
		if repo.Maintainers[i].ID == login {
			return &repo.Maintainers[i], true
		}
	}
	return nil, false
}

// ParseRegistry decodes the program registry YAML document.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Program Registry `yaml:"program"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc.Program, nil
}
