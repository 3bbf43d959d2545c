package server

import "net/http"

// Role is the capability a request carries. It is resolved once at the HTTP
// edge and passed explicitly to handlers; nothing deeper in the stack reads
// request state to decide what a caller may do.
type Role int

const (
	// RoleViewer may read snapshots and submit deletes
	RoleViewer Role = iota
	// RoleAdmin may additionally reset the board
	RoleAdmin
)

// String returns the string representation of the role
func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

const adminTokenHeader = "X-Admin-Token"

// resolveRole maps the request to a role. An empty configured token means
// admin operations are disabled entirely.
func (s *Server) resolveRole(r *http.Request) Role {
	if s.cfg.AdminToken == "" {
		return RoleViewer
	}
	if r.Header.Get(adminTokenHeader) == s.cfg.AdminToken {
		return RoleAdmin
	}
	return RoleViewer
}

// withRole resolves the caller's role and hands it to the wrapped handler
func (s *Server) withRole(fn func(http.ResponseWriter, *http.Request, Role)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, s.resolveRole(r))
	}
}
