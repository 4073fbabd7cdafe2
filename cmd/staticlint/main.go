// The application is the project's static analysis multitool. It bundles
// standard analyzers from the Go toolchain, third-party analyzers and the
// project-specific noosexit analyzer into a single multichecker binary.
//
// An optional config.json next to the binary narrows the staticcheck
// analyzer set; without it every SA analyzer is enabled.
package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unreachable"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/usersvc/cmd/staticlint/noosexit"
)

// configName is the JSON file listing enabled staticcheck analyzers.
const configName = `config.json`

type configData struct {
	Staticcheck []string
}

func main() {
	multichecker.Main(collectAnalyzers()...)
}

func collectAnalyzers() []*analysis.Analyzer {
	checks := []*analysis.Analyzer{
		atomic.Analyzer,
		bools.Analyzer,
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		nilfunc.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		noosexit.Analyzer,
	}

	enabled := enabledStaticcheckAnalyzers()
	for _, v := range staticcheck.Analyzers {
		if enabled(v.Analyzer.Name) {
			checks = append(checks, v.Analyzer)
		}
	}

	return checks
}

// enabledStaticcheckAnalyzers returns a predicate over staticcheck
// analyzer names: the config file's set when present, otherwise the whole
// SA class.
func enabledStaticcheckAnalyzers() func(name string) bool {
	appfile, err := os.Executable()
	if err != nil {
		return allSA
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), configName))
	if err != nil {
		return allSA
	}

	var cfg configData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return allSA
	}

	fromConfig := make(map[string]bool, len(cfg.Staticcheck))
	for _, name := range cfg.Staticcheck {
		fromConfig[name] = true
	}

	return func(name string) bool {
		return fromConfig[name]
	}
}

func allSA(name string) bool {
	return strings.HasPrefix(name, "SA")
}
