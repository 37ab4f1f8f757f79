// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/clenio77/rota-facil/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
