// Package cmd provides CLI commands for the mongopatcher tool.
//
// This package implements the command-line interface for mongopatcher,
// providing commands for datamodel inspection, manifest management, patch
// scaffolding and the upgrade walk itself. It supports both standalone
// operation and embedding into a host application that registers its fix
// routines through RegisterFix before calling Run.
//
// # Available Commands
//
// The cmd package currently provides:
//   - upgrade: Apply every patch reachable from the current version
//   - discover: List the available patches
//   - init: Install the version manifest on the database
//   - info: Show the datamodel version and update history
//   - create: Scaffold a new patch definition file
//   - dev: Manage a local MongoDB development server
//
// # Command Structure
//
// Each command is implemented as a separate function that returns a
// *cli.Command, following the urfave/cli/v3 pattern. Commands are designed
// to be composable and testable, with proper error handling and
// comprehensive help text.
//
// # Global Options
//
// All commands support global flags:
//   - --dir, -d: Specify project directory (defaults to current directory)
//   - --url, -u: MongoDB connection string (also MONGOPATCHER_URI)
//   - --database: Database holding the datamodel
//   - --help, -h: Display command help
//   - --version: Display version information
//
// # Example Usage
//
// Commands are registered in the main application and can be invoked from
// the command line:
//
//	mongopatcher init                         # Install the version manifest
//	mongopatcher discover --verbose           # List patches with their notes
//	mongopatcher upgrade --dry-run            # Preview the upgrade walk
//	mongopatcher upgrade --yes                # Apply all pending patches
//	mongopatcher create split_user_names      # Scaffold a patch stub
//	mongopatcher dev up                       # Start a local MongoDB server
//
// The upgrade command asks for confirmation before altering the database;
// pass --yes to skip the prompt in scripts.
package cmd
