// Package models defines domain entities and persistence interfaces for the klix reporting core.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs supplied by the front-end
//   - [HistoryItem] : A generated text, image, video or audio result
//   - [Media] : Text or binary payload of a result
//   - [Blob] : Binary media with its MIME type
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : Account profile with subscription status and self-service webhook URL
//   - [TrialUser] : Trial registration keyed by normalized email
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
