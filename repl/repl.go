// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package repl provides a read/eval/print loop for bindings.
//
// It supports readline-style command editing,
// and interrupts through Control-C.
//
// Each input line is compiled as a binding in the scope of the session.
// The REPL evaluates it against the page view model and prints the
// result followed by its value script. A line of the form
//
//	:Property expression
//
// prints the named property of the binding instead, for example
// ":CellScript Title" or ":NegatedBinding Items.Count > 0".
package repl // import "github.com/tomasmikes/dotvvm/repl"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tomasmikes/dotvvm/binding"
	"github.com/tomasmikes/dotvvm/compile"
	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/types"
)

var interrupted = make(chan os.Signal, 1)

// A Session holds the state the REPL evaluates bindings in.
type Session struct {
	Compiler  *binding.Compiler
	Scope     *scope.Scope // a root scope
	ViewModel any
	Control   compile.Control // may be nil
	Out       io.Writer
}

// REPL executes a read, eval, print loop.
//
// Each binding is compiled with a context.Context that is cancelled
// by a SIGINT (Control-C).
func REPL(sess *Session) {
	signal.Notify(interrupted, os.Interrupt)
	defer signal.Stop(interrupted)

	rl, err := readline.New(">>> ")
	if err != nil {
		PrintError(err)
		return
	}
	defer rl.Close()
	for {
		if err := rep(rl, sess); err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(err)
				continue
			}
			break
		}
	}
	fmt.Println()
}

// rep reads, evaluates, and prints one item.
//
// It returns an error (possibly readline.ErrInterrupt)
// only if readline failed. Binding errors are printed.
func rep(rl *readline.Instance, sess *Session) error {
	// Each item gets its own context,
	// which is cancelled by a SIGINT.
	//
	// Note: during Readline calls, Control-C causes Readline to return
	// ErrInterrupt but does not generate a SIGINT.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-interrupted:
			cancel()
		case <-ctx.Done():
		}
	}()

	line, err := rl.Readline()
	if err != nil {
		return err
	}
	if err := sess.Eval(ctx, line); err != nil {
		PrintError(err)
	}
	return nil
}

// Eval compiles and evaluates one input line and prints the result
// to sess.Out. Blank lines are ignored.
func (sess *Session) Eval(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	prop := binding.ReadDelegate
	if rest, ok := strings.CutPrefix(line, ":"); ok {
		name, src, _ := strings.Cut(rest, " ")
		p, ok := binding.ParseProperty(name)
		if !ok {
			return fmt.Errorf("unknown property %s", name)
		}
		prop, line = p, strings.TrimSpace(src)
	}

	res, err := sess.Compiler.CompilePage(ctx, []binding.Input{{Code: line, Scope: sess.Scope}})
	if err != nil {
		return err
	}
	r := res.Results[0]
	if prop == binding.ReadDelegate {
		if r.Err != nil {
			return r.Err
		}
		v, err := r.Read([]any{sess.ViewModel}, sess.Control)
		if err != nil {
			return err
		}
		if v == nil {
			fmt.Fprintln(sess.Out, "null")
		} else {
			fmt.Fprintln(sess.Out, types.Format(v))
		}
		fmt.Fprintln(sess.Out, r.Value)
		return nil
	}

	v, err := r.Binding.Get(prop)
	if err != nil {
		return err
	}
	switch v := v.(type) {
	case *binding.Binding:
		e, err := v.Expr()
		if err != nil {
			return err
		}
		code, err := v.ValueScript()
		if err != nil {
			return err
		}
		fmt.Fprintln(sess.Out, e)
		fmt.Fprintln(sess.Out, code)
	case *binding.References:
		main := "<none>"
		if v.Main != nil {
			main = v.Main.FullName()
		}
		fmt.Fprintf(sess.Out, "main: %s\n", main)
		for _, f := range v.All {
			fmt.Fprintln(sess.Out, f.FullName())
		}
	default:
		fmt.Fprintln(sess.Out, v)
	}
	return nil
}

// PrintError prints the error to stderr,
// or its kind and source if it is a compilation error.
func PrintError(err error) {
	var d *diag.Error
	if errors.As(err, &d) && d.Source != "" {
		dup := *d
		dup.Source = ""
		fmt.Fprintf(os.Stderr, "%s\n\t%s\n", d.Source, &dup)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
