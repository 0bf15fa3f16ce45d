// Package page runs one live page session per WebSocket connection.
//
// A session mounts the navigation and contact form controllers for a single
// browser page. The browser reports viewport intersections and user input as
// events; the session pushes back state snapshots and scroll commands. The
// controllers are torn down with the connection.
package page
