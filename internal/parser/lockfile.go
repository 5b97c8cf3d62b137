package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/acheong08/depvis/pkg/models"
)

// AssetsFileName is the restore output read by the graph builder.
const AssetsFileName = "project.assets.json"

const supportedAssetsVersion = 3

var (
	// ErrInvalidAssets is returned for documents that are not a usable assets file.
	ErrInvalidAssets = errors.New("invalid assets file")
	// ErrUnsupportedVersion is returned for assets files other than version 3.
	ErrUnsupportedVersion = errors.New("unsupported assets file version")
)

// ReadAssetsFile reads and parses a project.assets.json file.
func ReadAssetsFile(path string) (*models.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assets file: %w", err)
	}

	manifest, err := ParseAssets(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return manifest, nil
}

// ParseAssets parses the contents of a project.assets.json file.
//
// Objects are walked in document order so targets, libraries and their
// dependencies keep the order restore wrote them in.
func ParseAssets(data []byte) (*models.Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidAssets)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidAssets)
	}

	if version := doc.Get("version").Int(); version != supportedAssetsVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, version, supportedAssetsVersion)
	}

	project := doc.Get("project")
	if !project.IsObject() {
		return nil, fmt.Errorf("%w: missing project section", ErrInvalidAssets)
	}

	manifest := &models.Manifest{
		ProjectVersion: project.Get("version").String(),
		ProjectPath:    project.Get("restore.projectPath").String(),
	}
	if manifest.ProjectVersion == "" {
		manifest.ProjectVersion = "1.0.0"
	}
	manifest.ProjectName = firstNonEmpty(
		project.Get("restore.projectName").String(),
		project.Get("name").String(),
		ProjectNameFromPath(manifest.ProjectPath),
	)
	if manifest.ProjectName == "" {
		return nil, fmt.Errorf("%w: project name not found", ErrInvalidAssets)
	}

	project.Get("restore.sources").ForEach(func(key, _ gjson.Result) bool {
		manifest.Sources = append(manifest.Sources, key.String())
		return true
	})
	project.Get("restore.configFilePaths").ForEach(func(_, value gjson.Result) bool {
		manifest.ConfigFilePaths = append(manifest.ConfigFilePaths, value.String())
		return true
	})

	doc.Get("targets").ForEach(func(key, value gjson.Result) bool {
		manifest.Targets = append(manifest.Targets, parseTarget(key.String(), value))
		return true
	})

	restoreFrameworks := project.Get("restore.frameworks")
	project.Get("frameworks").ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		fw := models.FrameworkInfo{
			Name:        name,
			TargetAlias: value.Get("targetAlias").String(),
		}

		value.Get("dependencies").ForEach(func(id, dep gjson.Result) bool {
			if target := dep.Get("target").String(); target != "" && !strings.EqualFold(target, "package") {
				return true
			}
			fw.Dependencies = append(fw.Dependencies, models.PackageDependency{
				ID:           id.String(),
				VersionRange: dep.Get("version").String(),
			})
			return true
		})

		restoreFramework(restoreFrameworks, name).Get("projectReferences").ForEach(func(path, _ gjson.Result) bool {
			fw.ProjectReferences = append(fw.ProjectReferences, path.String())
			return true
		})

		manifest.Frameworks = append(manifest.Frameworks, fw)
		return true
	})

	return manifest, nil
}

func parseTarget(key string, value gjson.Result) models.Target {
	framework, rid, _ := strings.Cut(key, "/")
	target := models.Target{
		Framework:         framework,
		RuntimeIdentifier: rid,
	}

	value.ForEach(func(libKey, lib gjson.Result) bool {
		name, version, _ := strings.Cut(libKey.String(), "/")
		library := models.Library{
			Name:    name,
			Version: version,
			Type:    lib.Get("type").String(),
		}
		lib.Get("dependencies").ForEach(func(id, versionRange gjson.Result) bool {
			library.Dependencies = append(library.Dependencies, models.PackageDependency{
				ID:           id.String(),
				VersionRange: versionRange.String(),
			})
			return true
		})
		target.Libraries = append(target.Libraries, library)
		return true
	})

	return target
}

// restoreFramework finds the restore metadata for a framework, matching on
// the key first and the normalized framework name second.
func restoreFramework(frameworks gjson.Result, name string) gjson.Result {
	var found gjson.Result
	want := models.NormalizeFramework(name)
	frameworks.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name || models.NormalizeFramework(key.String()) == want {
			found = value
			return false
		}
		return true
	})
	return found
}

// FindAssetsFile looks for project.assets.json in dir and dir/obj.
func FindAssetsFile(dir string) (string, error) {
	for _, candidate := range []string{
		filepath.Join(dir, AssetsFileName),
		filepath.Join(dir, "obj", AssetsFileName),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found in %s", AssetsFileName, dir)
}

// ProjectNameFromPath returns the file name of a project path without its
// extension. Both / and \ separators are accepted since restore output keeps
// the separators of the machine that produced it.
func ProjectNameFromPath(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if ext := filepath.Ext(path); ext != "" {
		path = strings.TrimSuffix(path, ext)
	}
	return path
}

// FileNameFromPath returns the last element of a path with either separator.
func FileNameFromPath(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
