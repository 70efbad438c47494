// Package core provides the extraction workflow and edit model.
//
// This package holds all domain logic independent of any UI or transport
// layer. The web server and the extractctl CLI both drive it.
//
// # Architecture
//
// The package is organized around a few concepts:
//
//   - Document: one upload and its extraction result. A Document moves from
//     processing to completed or error exactly once and is never modified
//     afterwards.
//   - Orchestrator: runs submit, text fetch and the optional table phase
//     against an [extraction.Service].
//   - EditState: per-artifact overrides layered over a completed Document,
//     with a version counter for cache invalidation.
//   - Session: the current workspace. A new upload supersedes the previous
//     one and late results for a superseded Document are discarded.
//   - Service: wires the above together under an [UploadLimiter].
//
// # Extraction Flow
//
//  1. [Service.Upload] validates the file and calls [Session.Begin]
//  2. A limiter slot is acquired
//  3. [Orchestrator.Run] submits the file and fetches the generated text
//  4. Table locations are requested and fetched concurrently; each raw
//     table is parsed by the tabular package
//  5. The terminal Document is installed with [Session.Complete]
//
// Failures in step 3 end the Document in error. Failures in step 4 only
// drop tables.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code prefix for support reference:
//
//   - EXT: remote extraction service
//   - EDIT: edit model
//   - DOC: session state
//   - FILE: uploaded input
//   - UPL: upload control
package core
