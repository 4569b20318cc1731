// Package core provides the table model and cleaning pipeline of Cleanlytics.
//
// The package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers, the batch CLI and tests alike.
//
// # Pipeline
//
// An upload is parsed into an immutable raw [Table] by [Ingest]. The working
// table is derived from it by three pure stages applied in a fixed order:
//
//   - [Clean] drops duplicate rows, then rows with missing cells.
//   - [Rename] relabels columns; collisions are rejected.
//   - [ApplyMapping] turns a categorical column into numeric codes.
//
// [NumericPanel] and [CategoricalPanel] summarise the working table for
// charts, and [Export] writes it as CSV or XLSX.
//
// # Sessions
//
// A [Session] owns one raw/working pair and exposes the transitions a user
// can trigger. Applied mappings are journaled so that changing the cleaning
// flags later re-evaluates the whole pipeline from raw. The [Service] keeps
// sessions in memory, bounds concurrent ingestion with an [UploadLimiter]
// and expires idle sessions.
//
// # Error Handling
//
// Technical errors are sentinel values wrapped with context. [MapError]
// maps them to user-friendly messages; see error_messages.go for the codes.
package core
