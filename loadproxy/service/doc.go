// Package service runs the load proxy: configuration, warm-up, then the HTTP listener.
//
// The listener is bound only after every pooled connection is open, so a load test that
// waits for the port never reaches a partially warmed pool. On shutdown the HTTP server
// drains and every pooled connection is closed.
package service
