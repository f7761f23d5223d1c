// Package cli provides the command-line interface for netmock.
//
//   - validate: check settings files against the schema
//   - resolve: run one request through the mocks of a settings file, offline
//   - schema: print the settings JSON Schema
//   - version: show netmock version
package cli
