// Package http provides HTTP handlers and middleware for the timetable API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","user"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token taken from the Authorization
//     header or session cookie. Returns 204 No Content and clears the cookie.
//   - POST /session/refresh: rotates the current token and extends its expiry.
//   - GET /schedules, POST /schedules, GET|PUT|DELETE /schedules/{id}: weekly event
//     management exchanging the `eventDTO` payload defined in schedule_handler.go.
//     Times are "HH:MM" strings and writes answer with conflict warnings instead of
//     rejecting overlapping slots.
//   - POST /schedules/{id}/move, POST /schedules/{id}/duplicate: reschedule or copy an event.
//   - POST /schedules/conflicts: checks a proposed slot without saving it.
//   - GET /schedules/week?date=YYYY-MM-DD: dated occurrences of the week containing date.
//   - GET /schedules/export.ics: the caller's timetable as an iCalendar feed.
//   - GET /subjects, POST /subjects, GET|PUT|DELETE /subjects/{id}: course catalog.
//     Reads are open to any signed in user, writes require an administrator.
//   - GET /users, POST /users, GET|PUT|DELETE /users/{id}: account management.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
