// Package http contains the HTTP handlers of the web server. Handlers hold
// their service dependencies, return chi routers from Routes, and delegate
// every failure to the central RFC 7807 error handler.
package http
