// Package driving holds the use cases the CLI and the MCP server call:
// ingesting and managing documents, asking questions, reading usage, and
// editing settings. Tenants are passed in by the caller on every call;
// identity is settled before a request reaches these ports.
package driving
