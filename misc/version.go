// Package misc keeps program identity information, version and git hash are
// set at build time with -ldflags.
package misc

var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "mdtoc"

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}

func GetAppName() string {
	return appName
}
