// Package models defines the domain entities exchanged between the photo services, the transfer engine and the UI.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects: lightweight structs decoded from service responses
//   - [Photo] and [File] : PhotoPrism search and detail results
//   - [AlbumNode] : one entry of the flattened Lychee album tree
//   - [Credentials], [SourceTokens], [DestinationTokens] : session inputs and outputs
//
// 2. Persistent Entities: database-backed records
//   - [TransferRecord] : audit row for a single transfer attempt
//
// Persistent entities implement the [Model] interface; [Repository] defines CRUD access.
package models
