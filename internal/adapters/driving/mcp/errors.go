// Package mcp serves docqa over the Model Context Protocol so assistants
// can ask grounded questions about a tenant's documents, list them and
// check the day's usage.
package mcp

import "errors"

// ErrMissingQueryService is returned by NewServer without a query service;
// the ask tool cannot exist without it.
var ErrMissingQueryService = errors.New("mcp: query service is required")
