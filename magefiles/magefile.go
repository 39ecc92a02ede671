// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

// Package main contains Mage build targets for cite-engine developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "cite-engine"
	cmdPkg  = "./cmd/cite-engine"

	// sampleLibrary is the fixture library used by Init and the server tests.
	sampleLibrary = "internal/library/testdata/library.yaml"
)

// projectDirs lists the working directories the server expects.
var projectDirs = []string{
	"library",
	"bin",
}

// Init creates the working directories and imports the sample library.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	mg.Deps(Build)
	if err := sh.RunV(binPath(), "import", sampleLibrary); err != nil {
		return fmt.Errorf("importing %s: %w", sampleLibrary, err)
	}
	fmt.Println("Project initialized.")
	return nil
}

// Build compiles the CLI binary into bin/, stamping the version from
// CITE_ENGINE_VERSION when set.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("CITE_ENGINE_VERSION")
	if version == "" {
		version = "dev"
	}
	out := binPath()
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Serve builds the binary and starts the API server.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "serve")
}

// Import builds the binary and imports the library file named by
// CITE_ENGINE_IMPORT (default: the sample library).
func Import() error {
	mg.Deps(Build)
	file := os.Getenv("CITE_ENGINE_IMPORT")
	if file == "" {
		file = sampleLibrary
	}
	return sh.RunV(binPath(), "import", file)
}

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Stats prints non-blank Go line counts per package, split into
// production and test code, plus the word count of the markdown docs.
func Stats() error {
	prod := map[string]int{}
	test := map[string]int{}
	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := nonBlankLines(path)
		if err != nil {
			return err
		}
		pkg := filepath.Dir(path)
		if strings.HasSuffix(path, "_test.go") {
			test[pkg] += n
		} else {
			prod[pkg] += n
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking sources: %w", err)
	}

	pkgs := make([]string, 0, len(prod))
	for pkg := range prod {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	var totalProd, totalTest int
	for _, pkg := range pkgs {
		fmt.Printf("%-28s %6d %6d\n", pkg, prod[pkg], test[pkg])
		totalProd += prod[pkg]
		totalTest += test[pkg]
	}
	fmt.Printf("%-28s %6d %6d\n", "total", totalProd, totalTest)

	words := 0
	for _, doc := range []string{"README.md", "DESIGN.md", "SPEC_FULL.md"} {
		data, err := os.ReadFile(doc)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading %s: %w", doc, err)
		}
		words += len(strings.Fields(string(data)))
	}
	fmt.Printf("Words (documentation): %d\n", words)
	return nil
}

func nonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("scanning %s: %w", path, err)
	}
	return n, nil
}
