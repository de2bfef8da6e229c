// Package httpapi exposes the dispatcher over HTTP.
//
//	POST /execute  {"query": "...", "vuID": 7}  ->  200 {"success": true}
//	GET  /health                                ->  200 OK
package httpapi
