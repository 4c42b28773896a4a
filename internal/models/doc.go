// Package models defines the data shared by the server, its HTTP clients and the persistence layer.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): JSON bodies exchanged over the local HTTP API
//   - [Playback] : Normalized now-playing state
//   - [SetupStatus] : Credential and authentication readiness
//   - [QRSession], [QRStatus], [QRSubmission] : Pairing session hand-off
//   - [AuthURL], [Ack], [ErrorBody] : Small envelopes
//
// 2. Persistent Records
//   - [TokenRecord] : An OAuth token together with the client id it was issued for
//
// The [Repository] interface describes the storage a [TokenRecord] lives in.
package models
