// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The bindc command compiles the bindings of a page.
//
// It reads a page file (see package config), compiles every binding,
// evaluates each against the page view model and prints a table of
// binding IDs, values and value scripts. With -manifest, it also writes
// the compiled bindings to a manifest file.
//
// With no bindings in the page file, bindc reads one binding per line
// from standard input, or starts a read-eval-print loop (REPL) if
// standard input is a terminal.
package main // import "github.com/tomasmikes/dotvvm/cmd/bindc"

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/tomasmikes/dotvvm/binding"
	"github.com/tomasmikes/dotvvm/config"
	"github.com/tomasmikes/dotvvm/manifest"
	"github.com/tomasmikes/dotvvm/repl"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/types"
)

// flags
var (
	configFile   = flag.String("config", "", "read the page from this TOML `file`")
	debug        = flag.Bool("debug", false, "format scripts for reading and trace property resolution")
	nullChecks   = flag.Bool("nullchecks", true, "guard member accesses on nullable values in scripts")
	workers      = flag.Int("workers", 0, "compile at most `n` bindings at once (0 means GOMAXPROCS)")
	failFast     = flag.Bool("failfast", false, "stop at the first binding that fails to compile")
	manifestFile = flag.String("manifest", "", "write the compiled bindings to this `file`")
	output       = flag.String("output", "wire", "manifest format (wire, json, text)")
)

func main() {
	os.Exit(doMain())
}

func doMain() int {
	log.SetPrefix("bindc: ")
	log.SetFlags(0)
	flag.Parse()
	if flag.NArg() > 0 {
		log.Print("unexpected arguments; use -config to name the page file")
		return 2
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Print(err)
			return 1
		}
	}
	opts := options(cfg)

	u, err := cfg.Universe()
	check(err)
	root, err := cfg.Scope(u)
	check(err)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if len(cfg.Bindings) == 0 {
		if interactive {
			fmt.Println("Welcome to bindc; enter a binding, or :Property binding.")
			repl.REPL(&repl.Session{
				Compiler:  binding.NewCompiler(u, opts),
				Scope:     root,
				ViewModel: cfg.Page.ViewModel,
				Out:       os.Stdout,
			})
			return 0
		}
		lines, err := readLines(os.Stdin)
		check(err)
		for _, line := range lines {
			cfg.Bindings = append(cfg.Bindings, &config.Binding{Code: line})
		}
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.DisableColor()
	}

	inputs, err := cfg.Inputs(u, root)
	check(err)
	res, err := binding.NewCompiler(u, opts).CompilePage(context.Background(), inputs)
	if err != nil {
		pterm.Error.Println(err)
		return 1
	}
	report(cfg, res)

	if *manifestFile != "" {
		m := manifest.New()
		m.AddPage(cfg.Page.Name, res)
		data, err := m.Marshal(manifest.Format(*output))
		check(err)
		check(os.WriteFile(*manifestFile, data, 0o666))
		pterm.Success.Printf("wrote %d bindings to %s\n", m.Len(), *manifestFile)
	}

	if !res.OK() {
		return 1
	}
	return 0
}

// options returns the compiler options of cfg overridden by the
// flags set on the command line.
func options(cfg *config.Config) binding.Options {
	opts := cfg.Options()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			opts.Debug = *debug
		case "nullchecks":
			opts.NullChecks = *nullChecks
		case "workers":
			opts.Workers = *workers
		}
	})
	opts.FailFast = *failFast
	if opts.Debug {
		opts.Trace = log.Printf
	}
	return opts
}

// report prints a table of the compiled bindings and their values
// in the page view model, followed by the errors.
func report(cfg *config.Config, res *binding.PageResult) {
	data := pterm.TableData{{"ID", "Binding", "Value", "Script"}}
	for i, r := range res.Results {
		if r.Err != nil {
			continue
		}
		data = append(data, []string{string(r.ID), cfg.Bindings[i].Code, evaluate(cfg, cfg.Bindings[i], r), r.Value.String()})
	}
	if len(data) > 1 {
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			log.Print(err)
		}
	}
	for _, err := range res.Errors {
		pterm.Error.Println(err)
	}
	if res.OK() {
		pterm.Success.Printf("compiled %d bindings of %s\n", len(res.Results), cfg.Page.Name)
	}
}

// evaluate reads r, the binding b, in the page view model.
// Bindings of a collection element are read in its first element.
func evaluate(cfg *config.Config, b *config.Binding, r *binding.Result) string {
	vm := cfg.Page.ViewModel
	vms := []any{vm}
	ctl := new(control)
	if b.Collection != "" {
		list, _ := vm[b.Collection].([]any)
		if len(list) == 0 {
			return "-"
		}
		vms = []any{list[0], vm}
		ctl.collection = list
	}
	v, err := r.Read(vms, ctl)
	if err != nil {
		return "error: " + err.Error()
	}
	if v == nil {
		return "null"
	}
	return types.Format(v)
}

// control supplies the special parameters during evaluation.
type control struct {
	index      int64
	collection []any
}

func (c *control) Parameter(p *scope.Parameter, depth int) (any, bool) {
	switch p.Kind {
	case scope.Index:
		return c.index, depth == 0 && c.collection != nil
	case scope.Collection:
		return c.collection, c.collection != nil
	}
	return nil, false
}

// readLines returns the non-blank lines of f.
func readLines(f *os.File) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
