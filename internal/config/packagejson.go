package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/Iron-Ham/nextron/internal/errors"
)

// PackageJSON holds the fields of the project's package.json that nextron uses.
type PackageJSON struct {
	Name        string
	ProductName string
	Version     string
	// Dependencies are the runtime dependency names, sorted. They are left
	// unbundled in the host bundle.
	Dependencies []string
	// OutputDir is electron-builder's build.directories.output, if set.
	OutputDir string
}

// ReadPackageJSON reads package.json from the project in dir.
func ReadPackageJSON(dir string) (*PackageJSON, error) {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("cannot read %s", path), fmt.Errorf("%w: %w", errors.ErrPackageJSON, err)).
			WithHint("run nextron from the root of your project")
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.NewConfigError(fmt.Sprintf("%s is not valid JSON", path), errors.ErrPackageJSON)
	}

	pkg := &PackageJSON{
		Name:        gjson.GetBytes(data, "name").String(),
		ProductName: gjson.GetBytes(data, "productName").String(),
		Version:     gjson.GetBytes(data, "version").String(),
		OutputDir:   gjson.GetBytes(data, "build.directories.output").String(),
	}
	gjson.GetBytes(data, "dependencies").ForEach(func(key, _ gjson.Result) bool {
		pkg.Dependencies = append(pkg.Dependencies, key.String())
		return true
	})
	sort.Strings(pkg.Dependencies)

	return pkg, nil
}

// DisplayName returns productName, falling back to name.
func (p *PackageJSON) DisplayName() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	return p.Name
}
