// Package acl implements the Anti-Corruption Layer between upstream quote
// APIs and the domain.
//
// The forismatic API is reached through [ForismaticFetcher]. Its wire DTO
// never leaves this package, and every failure is classified into a
// [domain.FetchError]:
//
//   - base URL that cannot be parsed or is not absolute http(s) → [domain.KindInvalidURL]
//   - no response (DNS, refused connection, cancelled context) → [domain.KindRequestFailed]
//   - status outside 200-299, body left unread → [domain.KindUnexpectedStatusCode]
//   - body that is not JSON with both quoteText and quoteAuthor → [domain.KindDecodingFailed]
//
// Empty strings are valid field values. [domain.KindNoData] is never produced;
// an empty body fails decoding.
package acl
