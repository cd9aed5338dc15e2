// Package http provides HTTP handlers and middleware for the reservation API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 and clears
//     the cookie.
//   - GET /users, POST /users, PUT /users/{id}, DELETE /users/{id}:
//     administrator controlled user management endpoints exchanging the
//     `userDTO` payload defined in user_handler.go.
//   - GET /rooms, POST /rooms, PUT /rooms/{id}, DELETE /rooms/{id}: room
//     catalog endpoints exchanging the `roomDTO` payload defined in
//     room_handler.go. Listing is available to any authenticated principal
//     while mutations require admin privileges.
//   - POST /reservations: commits a booking request, expanding its recurrence
//     and inserting every occurrence atomically. A single taken slot rejects
//     the whole request with 409 naming the blocking reservation.
//   - POST /reservations/availability: read-only probe returning the dates a
//     request would conflict on, without writing anything.
//   - GET /reservations: filtered listing (room_id, requester_id, from, to).
//   - PUT /reservations/{id}/status: administrator approval or rejection.
//   - DELETE /reservations/{id}: cancellation by the requester or an
//     administrator.
//   - GET /events: recently emitted lifecycle events, administrators only.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
