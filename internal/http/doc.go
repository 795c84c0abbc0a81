// Package http provides HTTP handlers and middleware for the room
// reservation API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"} with an
//     optional "pending_reservation" draft that is replayed once the session
//     exists. Response: {"token","expires_at"} with the token also surfaced via
//     the `X-Session-Token` header and a `session_token` cookie.
//   - PUT /sessions/current: rotates the current session token and extends its
//     expiry. DELETE /sessions/current revokes it and clears the cookie.
//   - DELETE /sessions/{token}: administrator controlled revocation of an
//     arbitrary session token.
//   - POST /register: unauthenticated sign-up. New accounts always start as
//     unverified members.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: user management
//     endpoints exchanging the `userDTO` payload defined in user_handler.go.
//     Members may fetch only their own account; everything else is admin only.
//   - GET /rooms, POST /rooms, GET/PUT/DELETE /rooms/{id}: room catalog
//     endpoints exchanging the `roomDTO` payload defined in room_handler.go.
//     Listing is available to any authenticated principal while mutations
//     require admin privileges. GET /rooms/{id}/schedule?date=YYYY-MM-DD
//     returns the confirmed reservations touching the room on that day.
//   - GET /reservations, POST /reservations, GET/PUT/DELETE /reservations/{id}:
//     booking endpoints exchanging the `reservationDTO` payload defined in
//     reservation_handler.go. DELETE removes the reservation outright and the
//     slot is immediately bookable again.
//   - GET /availability?room_id&date&from&to: answers whether one room is free
//     for the window described by a date plus grid slot labels. GET
//     /availability/rooms?date&from&to lists the active rooms free for the
//     window. GET /timeslots exposes the booking grid and the default slot.
//   - POST /maintenance/reservations/purge: administrator retention sweep.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
