// Package ui provides terminal output components for the pantti CLI.
//
// Unlike the interactive terminal host in package tui, these components
// follow a "run once and exit" pattern: commands such as lookup, devices
// and discover print a header and a result box and return.
//
// # Components
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success, failure or warning box with ordered details
//   - Printer: writes the above, plus the deposit lookup verdict, to a writer
//
// # Logging Integration
//
// Log output is controlled by the PANTTI_LOG_LEVEL environment variable.
// When unset, zap logging is silent so the styled output stays clean.
package ui
