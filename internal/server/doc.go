// Package server is the web host: it serves the scanner page and keeps
// every open browser tab in sync with the application's document.
//
// # Routes
//
//	GET /                          scanner page with the current markup
//	GET /ws                        WebSocket for renders and events
//	GET /health                    JSON liveness check
//	GET /static/sad-cat-thumb.png  no-deposit illustration
//
// # WebSocket Messages
//
// All messages are JSON text frames. The server sends:
//
//	{"type":"hello","id":"<client uuid>"}
//	{"type":"render","html":"<button id=\"start-button\" ...>"}
//
// A render message carries the complete inner HTML of the mount point and
// replaces whatever the browser shows. Clients send:
//
//	{"type":"event","target":"start-button","event":"click"}
//	{"type":"event","target":"source-select","event":"change","value":"/dev/ttyACM0"}
//
// Events are handed to the Host, which dispatches them on the event loop
// to the listeners bound by the last render.
//
// # TLS
//
// When both CertPath and KeyPath are set the server speaks HTTPS and the
// page connects with wss://.
//
// # Thread Safety
//
// OnRender runs on the event loop; everything else runs on net/http
// goroutines. The Hub serializes broadcasts and registrations so a newly
// connected client always receives the latest render first.
package server
