// Package api is the HTTP surface of gvserver.
//
// Routes:
//
//	GET    /, /health_check    liveness
//	POST   /users              signup; Basic credentials, JSON {email, contents_*}
//	POST   /login              Basic credentials, returns {"jwt": ...}
//	GET    /users              ?username= | ?user_id= | ?email=  (Bearer)
//	PUT    /users/{user_id}    owner only (Bearer)
//	DELETE /users              owner only (Bearer)
//	POST   /pinpoints          owner only (Bearer)
//	GET    /pinpoints          ?username=, other users' entries censored (Bearer)
//	DELETE /pinpoints          owner only, one id or all (Bearer)
//
// Errors are JSON {"error": "..."}. Malformed input is 400, every
// authentication or ownership failure is 401 and anything unexpected is a
// generic 500 with the cause logged server side.
//
// Server.Handler wraps the router in tracing, request ids, access logging,
// panic recovery and a body size limit. Signup and login are rate limited
// per client address when a RateLimiter is supplied.
package api
