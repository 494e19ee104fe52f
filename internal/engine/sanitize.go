package engine

import "regexp"

// Directives below only make sense in the hosted notebook environment the
// source format comes from. They are neutralized before execution so a cell
// that carries them still runs.
var (
	pipInstallRe = regexp.MustCompile(`(?m)^\s*!pip install.*$`)
	driveMountRe = regexp.MustCompile(`(?m)^\s*(?:from google\.colab import .*|.*\bdrive\.mount\(.*)$`)
	importLineRe = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+\S.*$`)
	titleLineRe  = regexp.MustCompile(`(?m)^\s*#\s*@title.*$`)
	magicLineRe  = regexp.MustCompile(`(?m)^\s*%\S.*$`)
	drivePathRe  = regexp.MustCompile(`/content/drive/MyDrive/[^"']*/`)
)

// Sanitize strips or comments out hosted-notebook directives and rewrites
// hosted-environment data paths to basePath when one is set.
func Sanitize(source, basePath string) string {
	source = pipInstallRe.ReplaceAllString(source, "# [removed: dependency install]")
	source = driveMountRe.ReplaceAllString(source, "# [removed: drive mount]")
	source = magicLineRe.ReplaceAllString(source, "# [removed: magic]")
	// Import lines are environment setup in the source format; the runtime
	// pre-seeds its modules instead.
	source = importLineRe.ReplaceAllStringFunc(source, func(line string) string {
		return "# " + line
	})
	// Title lines are metadata, not code.
	source = titleLineRe.ReplaceAllString(source, "")

	if basePath != "" {
		source = drivePathRe.ReplaceAllString(source, basePath)
	}
	return source
}
