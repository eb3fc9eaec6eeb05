/*
Copyright 2021 Stefan Prodan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

type stderrLogger struct {
	stderr io.Writer
}

func (l stderrLogger) Println(a ...interface{}) {
	fmt.Fprintln(l.stderr, a...)
}

// Success prints the message prefixed with a green check mark.
func (l stderrLogger) Success(a ...interface{}) {
	l.Println(append([]interface{}{color.GreenString("✔")}, a...)...)
}

// Failure prints the message prefixed with a red cross mark.
func (l stderrLogger) Failure(a ...interface{}) {
	l.Println(append([]interface{}{color.RedString("✗")}, a...)...)
}

// Logr returns a structured logger writing to the same stream,
// verbosity zero discards all messages.
func (l stderrLogger) Logr(verbosity int) logr.Logger {
	if verbosity <= 0 {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			l.Println(color.HiBlackString(prefix), args)
			return
		}
		l.Println(args)
	}, funcr.Options{Verbosity: verbosity - 1})
}
