package ffi

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedTypes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedImports | packages.NeedDeps

func loadProgram(t *testing.T, dir string) *packages.Package {
	t.Helper()

	cfg := &packages.Config{
		Mode:  loadMode,
		Dir:   ".",
		Tests: false,
	}
	pkgs, err := packages.Load(cfg, "./"+filepath.ToSlash(dir))
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	return pkgs[0]
}

func skipWithoutToolchain(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("type-checking programs is slow")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}
}

func TestAcceptedProgram(t *testing.T) {
	skipWithoutToolchain(t)

	pkg := loadProgram(t, filepath.Join("testdata", "accepted"))
	require.Empty(t, pkg.Errors)
}

func TestRejectedPrograms(t *testing.T) {
	skipWithoutToolchain(t)

	entries, err := os.ReadDir(filepath.Join("testdata", "rejected"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		t.Run(e.Name(), func(t *testing.T) {
			pkg := loadProgram(t, filepath.Join("testdata", "rejected", e.Name()))

			var typeErrs int
			for _, perr := range pkg.Errors {
				require.NotContains(t, perr.Msg, "could not import")
				if perr.Kind == packages.TypeError {
					typeErrs++
				}
			}
			require.NotZero(t, typeErrs, "program was expected to be rejected by the type checker")
		})
	}
}
