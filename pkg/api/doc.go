// Package api defines the wire types shared by the promptstream gateway.
//
// The package performs no I/O. It covers three things:
//   - [CompletionRequest]: the JSON body accepted by the completion route
//   - [APIError]: structured error with type, code, param, and message
//   - [StreamPart]: one line of the streamed response body, carrying either
//     model text, side-channel data, or an error message
//
// Stream parts use the line-oriented data stream format understood by
// streaming text clients:
//
//	0:"Once"\n
//	0:" upon"\n
//	2:[{"test":"value"}]\n
//
// The leading code identifies the part type and the remainder of the line
// is a JSON value.
package api
