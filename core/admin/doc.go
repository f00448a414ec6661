// Package admin exposes topic management and broker statistics over HTTP.
//
// Routes registered by Mount:
//
//	POST   /topics         {"name": "..."}  201 {"status":"created","topic":"..."}
//	DELETE /topics/{name}                   200 {"status":"deleted","topic":"..."}
//	GET    /topics                          {"topics":[{"name":"...","subscribers":0}]}
//	GET    /stats                           {"topics":{"name":{"messages":0,"subscribers":0}}}
//	GET    /health                          {"uptime_sec":0,"topics":0,"subscribers":0}
//
// Errors are rendered by the router's error handler as {"error": "..."}.
// Authentication is left to middleware on the router.
package admin
