package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"richdoc/config"
	"richdoc/state"
)

// buildOutputPath returns constructed output file path/name based on various
// input parameters. It uses either default naming scheme or user-defined
// template and takes into account whether to preserve source directory
// structure on the output. If cleans up path and if requested transliterates
// it
func buildOutputPath(d *document, dst string, format config.OutputFmt, env *state.LocalEnv) string {
	outDir := determineOutputDir(d.src, dst, env)
	defaultFile := buildDefaultFileName(d.src, format, env)

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandOutputNameTemplate(d, format, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}

	return assemblePathWithSubdirs(outDir, expandedName, format, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildDefaultFileName(src string, format config.OutputFmt, env *state.LocalEnv) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return cleanPathSegment(baseName, env) + format.Ext()
}

func expandOutputNameTemplate(d *document, format config.OutputFmt, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(d, config.OutputNameTemplateFieldName, env.Cfg.Document.OutputNameTemplate, format)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(filepath.FromSlash(expandedName))
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, format config.OutputFmt, env *state.LocalEnv) string {
	pathSegments := splitAndCleanPath(expandedName)
	if len(pathSegments) == 0 {
		return filepath.Join(outDir, "_"+format.Ext())
	}

	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)
	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}
	dirParts = append(dirParts, cleanPathSegment(pathSegments[len(pathSegments)-1], env)+format.Ext())
	return filepath.Join(dirParts...)
}

// splitAndCleanPath splits path into segments dropping empty ones and
// attempts to climb up.
func splitAndCleanPath(path string) []string {
	segments := make([]string, 0, 8)
	for _, s := range strings.Split(path, string(os.PathSeparator)) {
		if s = strings.TrimSpace(s); s != "" && s != "." && s != ".." {
			segments = append(segments, s)
		}
	}
	return slices.Clip(segments)
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
