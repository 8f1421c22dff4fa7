// Package core provides the business logic behind the pricing dashboard.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers and the pharmactl CLI alike.
//
// # Architecture
//
// A [Service] wraps one immutable [dataset.Table] loaded at startup. Every
// request is a pure transformation of that table:
//
//  1. Constraints are applied with [filter.Apply] ([Service.Filter])
//  2. The selection is aggregated by the analytics package
//     ([Service.Dashboard], [Service.View])
//  3. Results are rendered by the caller, or serialized with
//     [Service.Rows] and [Service.Export]
//
// Filter options are derived once from the unfiltered table, so narrowing
// one filter never narrows the choices offered by another.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DATA001-DATA005: Loading the pricing file
//   - VIEW001, TBL001, EXP001: Bad request parameters
//   - EXP002: Every export slot is busy
//   - REQ001-REQ002: Cancelled or timed out requests
//   - RATE001: Rate limiting
//
// Unknown filter values are not errors. They produce an empty selection and
// a warning string for display.
//
// # Metrics
//
// The service records Prometheus metrics for the table size, filter
// evaluations and exports on the default registry.
//
// # Exports
//
// Exports hold a slot in an [ExportLimiter] while they write. Shutdown can
// wait for in-flight downloads with [Service.WaitForExports].
package core
