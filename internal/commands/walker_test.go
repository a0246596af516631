package commands_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/combiner/internal/commands"
	"github.com/temirov/combiner/internal/output"
	"github.com/temirov/combiner/internal/types"
)

func renderTree(snapshot *types.Snapshot) string {
	var builder strings.Builder
	output.WriteTree(&builder, snapshot.Tree)
	return builder.String()
}

func TestWalkGitignoreScenario(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeProjectFiles(t, fileSystem, map[string]string{
		".gitignore":          "node_modules/\n*.tmp",
		"src/app.js":          "console.log('app');\n",
		"node_modules/lib.js": "module.exports = {};\n",
		"scratch.tmp":         "scratch",
		"README.md":           "# readme\n",
	})
	configuration := defaultConfiguration()

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, nil).Walk()
	require.NoError(t, err)

	require.Equal(t, []string{"src/app.js"}, manifestPaths(snapshot))
	require.Equal(t, "console.log('app');\n", snapshot.Manifest[0].Content)
	require.Equal(t, "project\n├── src\n│   └── app.js\n└── README.md\n", renderTree(snapshot))

	artifact := output.RenderArtifact(snapshot)
	require.NotContains(t, artifact, "node_modules")
	require.NotContains(t, artifact, "scratch.tmp")
	require.NotContains(t, artifact, "# File: README.md")
	require.Contains(t, artifact, "# File: src/app.js\nconsole.log('app');\n")
}

func TestWalkPrunesExcludedDirectoriesWithoutListingThem(t *testing.T) {
	memoryFs := afero.NewMemMapFs()
	writeProjectFiles(t, memoryFs, map[string]string{
		".gitignore":           "build/\n",
		"build/keep.py":        "print('never')\n",
		"build/nested/deep.js": "never()\n",
		".venv/lib/site.py":    "hidden\n",
		"main.py":              "print('main')\n",
	})
	fileSystem := newRestrictedFs(memoryFs)
	configuration := defaultConfiguration()

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, nil).Walk()
	require.NoError(t, err)

	require.Equal(t, []string{"main.py"}, manifestPaths(snapshot))
	require.Equal(t, "project\n└── main.py\n", renderTree(snapshot))
	require.False(t, fileSystem.opened(testRootDirectory+"/build"))
	require.False(t, fileSystem.opened(testRootDirectory+"/.venv"))
	require.NotContains(t, output.RenderArtifact(snapshot), "keep.py")
}

func TestWalkManifestIsLexicographic(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeProjectFiles(t, fileSystem, map[string]string{
		"b.py":   "b\n",
		"a.py":   "a\n",
		"c/a.py": "ca\n",
	})
	configuration := defaultConfiguration()

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, nil).Walk()
	require.NoError(t, err)

	require.Equal(t, []string{"a.py", "b.py", "c/a.py"}, manifestPaths(snapshot))
	require.Equal(t, "project\n├── c\n│   └── a.py\n├── a.py\n└── b.py\n", renderTree(snapshot))
}

func TestWalkTreeListsDirectoriesBeforeFiles(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeProjectFiles(t, fileSystem, map[string]string{
		"aaa.css":          "a {}\n",
		"zeta/index.html":  "<html></html>\n",
		"alpha/z.py":       "z\n",
		"alpha/beta/b.js":  "b\n",
		"alpha/image.png":  "\x89PNG",
		"mid/notes.txt":    "notes\n",
		"zzz_last_file.py": "last\n",
	})
	configuration := defaultConfiguration()

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, nil).Walk()
	require.NoError(t, err)

	expectedTree := strings.Join([]string{
		"project",
		"├── alpha",
		"│   ├── beta",
		"│   │   └── b.js",
		"│   ├── image.png",
		"│   └── z.py",
		"├── mid",
		"│   └── notes.txt",
		"├── zeta",
		"│   └── index.html",
		"├── aaa.css",
		"└── zzz_last_file.py",
		"",
	}, "\n")
	require.Equal(t, expectedTree, renderTree(snapshot))
	require.Equal(t, []string{"aaa.css", "alpha/beta/b.js", "alpha/z.py", "zeta/index.html", "zzz_last_file.py"}, manifestPaths(snapshot))
}

func TestWalkExtensionMatchIgnoresCase(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeProjectFiles(t, fileSystem, map[string]string{
		"Main.JAVA": "class Main {}\n",
		"Makefile":  "all:\n",
	})
	configuration := defaultConfiguration()

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, nil).Walk()
	require.NoError(t, err)
	require.Equal(t, []string{"Main.JAVA"}, manifestPaths(snapshot))
}

func TestWalkKeepsGoingAfterMalformedContent(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeProjectFiles(t, fileSystem, map[string]string{
		"a.py": "before\xc3(after\xff",
		"b.py": "print('b')\n",
	})
	configuration := defaultConfiguration()

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, nil).Walk()
	require.NoError(t, err)
	require.Len(t, snapshot.Manifest, 2)

	malformedRecord := snapshot.Manifest[0]
	require.Empty(t, malformedRecord.ReadError)
	require.True(t, utf8.ValidString(malformedRecord.Content))
	require.True(t, strings.HasPrefix(malformedRecord.Content, "before"))
	require.Contains(t, malformedRecord.Content, "(after")
	require.Contains(t, malformedRecord.Content, string(utf8.RuneError))
	require.Equal(t, int64(len("before\xc3(after\xff")), malformedRecord.SizeBytes)

	require.Equal(t, "print('b')\n", snapshot.Manifest[1].Content)
	artifact := output.RenderArtifact(snapshot)
	require.Contains(t, artifact, "# File: a.py\n")
	require.Contains(t, artifact, "# File: b.py\nprint('b')\n")
}

func TestWalkRecordsUnreadableFiles(t *testing.T) {
	memoryFs := afero.NewMemMapFs()
	writeProjectFiles(t, memoryFs, map[string]string{
		"locked.py": "secret\n",
		"open.py":   "print('open')\n",
	})
	fileSystem := newRestrictedFs(memoryFs, testRootDirectory+"/locked.py")
	configuration := defaultConfiguration()
	observedCore, observedLogs := observer.New(zapcore.WarnLevel)

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, zap.New(observedCore)).Walk()
	require.NoError(t, err)

	require.Equal(t, []string{"locked.py", "open.py"}, manifestPaths(snapshot))
	require.Equal(t, "permission denied", snapshot.Manifest[0].ReadError)
	require.Empty(t, snapshot.Manifest[0].Content)
	require.Zero(t, snapshot.Manifest[0].SizeBytes)
	require.Equal(t, "print('open')\n", snapshot.Manifest[1].Content)
	require.Equal(t, int64(len("print('open')\n")), snapshot.TotalBytes())

	artifact := output.RenderArtifact(snapshot)
	require.Contains(t, artifact, "# File: locked.py\n# [Error reading file: permission denied]\n")
	require.NotContains(t, artifact, testRootDirectory+"/")
	readWarnings := observedLogs.FilterMessage("unable to read file").All()
	require.Len(t, readWarnings, 1)
	require.Equal(t, int64(1), readWarnings[0].ContextMap()["depth"])
}

func TestWalkSkipsUnreadableSubdirectory(t *testing.T) {
	memoryFs := afero.NewMemMapFs()
	writeProjectFiles(t, memoryFs, map[string]string{
		"locked/inner.py": "inner\n",
		"main.py":         "main\n",
	})
	fileSystem := newRestrictedFs(memoryFs, testRootDirectory+"/locked")
	configuration := defaultConfiguration()
	observedCore, observedLogs := observer.New(zapcore.WarnLevel)

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, zap.New(observedCore)).Walk()
	require.NoError(t, err)

	require.Equal(t, []string{"main.py"}, manifestPaths(snapshot))
	require.Equal(t, "project\n├── locked\n└── main.py\n", renderTree(snapshot))
	skipWarnings := observedLogs.FilterMessage("skipping unreadable directory").All()
	require.Len(t, skipWarnings, 1)
	require.Equal(t, "locked", skipWarnings[0].ContextMap()["path"])
	require.Equal(t, int64(1), skipWarnings[0].ContextMap()["depth"])
}

func TestWalkFailsWhenRootCannotBeRead(t *testing.T) {
	memoryFs := afero.NewMemMapFs()
	writeProjectFiles(t, memoryFs, map[string]string{"main.py": "main\n"})
	configuration := defaultConfiguration()

	deniedFs := newRestrictedFs(memoryFs, testRootDirectory)
	_, deniedErr := commands.NewTreeWalker(deniedFs, loadFilter(t, memoryFs, configuration), configuration, nil).Walk()
	require.ErrorIs(t, deniedErr, commands.ErrRootUnreadable)

	missingConfiguration := configuration
	missingConfiguration.RootPath = "/missing"
	_, missingErr := commands.NewTreeWalker(memoryFs, loadFilter(t, memoryFs, missingConfiguration), missingConfiguration, nil).Walk()
	require.ErrorIs(t, missingErr, commands.ErrRootUnreadable)

	fileConfiguration := configuration
	fileConfiguration.RootPath = testRootDirectory + "/main.py"
	_, fileErr := commands.NewTreeWalker(memoryFs, loadFilter(t, memoryFs, configuration), fileConfiguration, nil).Walk()
	require.ErrorIs(t, fileErr, commands.ErrRootUnreadable)
}

func TestWalkIgnoresPreviousArtifacts(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeProjectFiles(t, fileSystem, map[string]string{
		"output_code_combiner/combined_output_20240101_000000.txt": "old artifact",
		"output_code_combiner/stray.py":                            "stray\n",
		"app.py":                                                   "app\n",
	})
	configuration := defaultConfiguration()

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, nil).Walk()
	require.NoError(t, err)
	require.Equal(t, []string{"app.py"}, manifestPaths(snapshot))
	require.Equal(t, "project\n└── app.py\n", renderTree(snapshot))
}

func TestWalkEmptyRoot(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(t, fileSystem.MkdirAll(testRootDirectory, 0o755))
	configuration := defaultConfiguration()

	snapshot, err := commands.NewTreeWalker(fileSystem, loadFilter(t, fileSystem, configuration), configuration, nil).Walk()
	require.NoError(t, err)
	require.Empty(t, snapshot.Manifest)
	require.Equal(t, "project\n", renderTree(snapshot))
	require.Zero(t, snapshot.TotalBytes())
}
