// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

// Version is the CLI version, set at build time with
// -ldflags "-X s2klaunch/cli/cmd.Version=...".
var Version = "0.0.0-dev"
