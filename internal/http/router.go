package httpserver

import (
	"net/http"

	"chargehub/internal/http/middleware"
	"chargehub/internal/models"
	"chargehub/internal/service"
)

// Routes groups handlers by surface.
type Routes struct {
	Health http.HandlerFunc
	Signup http.HandlerFunc
	Login  http.HandlerFunc

	Stations         http.HandlerFunc
	StationAnalytics http.HandlerFunc
	WS               http.HandlerFunc

	SessionStart http.HandlerFunc
	QueueStatus  http.HandlerFunc
	SessionStop  http.HandlerFunc
	SessionsMe   http.HandlerFunc
	Insights     http.HandlerFunc
	Chat         http.HandlerFunc
	Recommend    http.HandlerFunc
	Search       http.HandlerFunc

	OwnerStationCreate  http.HandlerFunc
	OwnerStationList    http.HandlerFunc
	OwnerActiveSessions http.HandlerFunc
	OwnerComplete       http.HandlerFunc
	OwnerCancel         http.HandlerFunc

	AdminDashboard  http.HandlerFunc
	AdminUsers      http.HandlerFunc
	AdminUserUpdate http.HandlerFunc
	AdminBlacklist  http.HandlerFunc
	AdminStations   http.HandlerFunc
	AdminApprove    http.HandlerFunc
	AdminSessions   http.HandlerFunc
	AdminQueue      http.HandlerFunc
}

// NewRouter registers endpoints with their method and role guards.
func NewRouter(routes Routes, tokens *service.TokenService) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.Auth(tokens)
	user := func(h http.HandlerFunc) http.Handler { return auth(middleware.RequireRole(models.RoleUser)(h)) }
	owner := func(h http.HandlerFunc) http.Handler { return auth(middleware.RequireRole(models.RoleOwner)(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return auth(middleware.RequireRole(models.RoleAdmin)(h)) }

	mux.Handle("/health", method(http.MethodGet, routes.Health))
	mux.Handle("/auth/signup", method(http.MethodPost, routes.Signup))
	mux.Handle("/auth/login", method(http.MethodPost, routes.Login))
	mux.Handle("/stations", method(http.MethodGet, routes.Stations))
	mux.Handle("/ws/stations", routes.WS)

	mux.Handle("/sessions/start", method(http.MethodPost, user(routes.SessionStart)))
	mux.Handle("/queue/status", method(http.MethodGet, user(routes.QueueStatus)))
	mux.Handle("/sessions/stop", method(http.MethodPost, user(routes.SessionStop)))
	mux.Handle("/sessions/me", method(http.MethodGet, user(routes.SessionsMe)))
	mux.Handle("/me/insights", method(http.MethodGet, user(routes.Insights)))
	mux.Handle("/stations/analytics", method(http.MethodGet, user(routes.StationAnalytics)))
	mux.Handle("/ai/chat", method(http.MethodPost, user(routes.Chat)))
	mux.Handle("/ai/recommend", method(http.MethodPost, user(routes.Recommend)))
	mux.Handle("/ai/search", method(http.MethodPost, user(routes.Search)))

	mux.Handle("/owner/stations", ownerStations(routes, owner))
	mux.Handle("/owner/sessions/active", method(http.MethodGet, owner(routes.OwnerActiveSessions)))
	mux.Handle("/owner/sessions/complete", method(http.MethodPost, owner(routes.OwnerComplete)))
	mux.Handle("/owner/sessions/cancel", method(http.MethodPost, owner(routes.OwnerCancel)))

	mux.Handle("/admin/dashboard", method(http.MethodGet, admin(routes.AdminDashboard)))
	mux.Handle("/admin/users", method(http.MethodGet, admin(routes.AdminUsers)))
	mux.Handle("/admin/users/update", method(http.MethodPost, admin(routes.AdminUserUpdate)))
	mux.Handle("/admin/users/blacklist", method(http.MethodPost, admin(routes.AdminBlacklist)))
	mux.Handle("/admin/stations", method(http.MethodGet, admin(routes.AdminStations)))
	mux.Handle("/admin/stations/approve", method(http.MethodPost, admin(routes.AdminApprove)))
	mux.Handle("/admin/sessions/active", method(http.MethodGet, admin(routes.AdminSessions)))
	mux.Handle("/admin/queue", method(http.MethodGet, admin(routes.AdminQueue)))

	return mux
}

// ownerStations serves both the create (POST) and list (GET) handlers on the
// same path.
func ownerStations(routes Routes, owner func(http.HandlerFunc) http.Handler) http.Handler {
	create := owner(routes.OwnerStationCreate)
	list := owner(routes.OwnerStationList)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			create.ServeHTTP(w, r)
		case http.MethodGet:
			list.ServeHTTP(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
