// Package services implements the driving ports on top of the driven ones.
//
// Ingestion: DocumentService validates the upload, extracts pages, runs
// the chunk pipeline, embeds and stores. Questions: QueryService admits the
// request through UsageGovernor, retrieves with Retriever, answers with
// AnswerAssembler, then records the spend. Nothing here imports an adapter.
package services
