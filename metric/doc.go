// Package metric wraps a dedicated Prometheus registry for the board.
//
// Components register their collectors through Registry under a
// "component.metric" key, which guards against duplicate registration and
// keeps the board's metrics isolated from the global Prometheus default
// registry. The registry is exposed over HTTP via Handler().
package metric
