// Package core provides the data quality engine.
//
// This package holds all domain logic independent of any transport or
// storage layer. It is used by the HTTP server, the dqcli command and tests
// without modification.
//
// # Pipeline
//
// A table moves through a fixed sequence of stages:
//
//  1. [Profile] computes per-column statistics and infers each column's type.
//  2. [Detect] runs every registered detector over the rows and profiles.
//  3. [Score] turns each candidate into a 0-1 score and a [Severity].
//  4. [Options] lists the remediations offered for an issue.
//  5. [Execute] applies one option to a copy of the current rows.
//  6. [CalculateKPIs] rolls profiles and open issues into a [KPISet].
//
// [Service] ties the stages together, persists results through a
// [Repository] and keeps the lineage log.
//
// # Detector Registry
//
// Detectors are registered at init time using [RegisterDetector] and run
// concurrently. Each one receives the same [DetectInput] and must not mutate
// it:
//
//	core.RegisterDetector("missing", detectMissing)
//
// # Datasets and Overlays
//
// The ingested rows are never modified. The first remediation creates a
// cleaned overlay; later remediations replace it wholesale. Statistics used
// to fill or clamp values always come from the original rows.
// [Service.ResetTable] drops the overlay.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DQ001-DQ003, TBL001-TBL002: issues, requests and tables
//   - CFG001: scoring configuration
//   - REM001-REM002: remediation options and methods
//   - ING001-ING005: ingestion failures
//   - STO001-STO002, REQ001-REQ002: storage and request lifecycle
//
// # Lineage
//
// Every applied option and every reset is recorded as a
// [RemediationAction] with its cell-level changes, plus a [KPISnapshot] of
// the quality index before and after. Both logs are bounded per table.
package core
